// internal/config/normalize.go
package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *DescriptorFile) {
	if cfg == nil {
		return
	}

	for i := range cfg.Descriptors {
		d := &cfg.Descriptors[i]
		d.Vendor = strings.TrimSpace(d.Vendor)
		d.Product = strings.TrimSpace(d.Product)
		d.Family = strings.TrimSpace(d.Family)
	}
}
