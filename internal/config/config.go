// Package config validates and normalizes the optional device descriptor
// file (see driver.LoadDescriptors): a YAML document listing
// vendor/product/family/model entries.
package config

// DescriptorFile is the top-level shape of a descriptor override document.
type DescriptorFile struct {
	Descriptors []DescriptorEntry `yaml:"descriptors"`
}

// DescriptorEntry mirrors one row of descriptor.c's g_descriptors table.
type DescriptorEntry struct {
	Vendor  string `yaml:"vendor"`
	Product string `yaml:"product"`
	Family  string `yaml:"family"`
	Model   int    `yaml:"model"`
}
