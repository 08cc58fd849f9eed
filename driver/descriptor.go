package driver

import (
	"os"

	"github.com/tamzrod/divecomputer/internal/config"
	"github.com/tamzrod/divecomputer/status"
	"gopkg.in/yaml.v3"
)

// Descriptor identifies one supported device model, grounded on
// descriptor.c's g_descriptors table: vendor/product strings, a family
// tag, and the model number the device itself reports.
type Descriptor struct {
	Vendor  string `yaml:"vendor"`
	Product string `yaml:"product"`
	Family  string `yaml:"family"`
	Model   int    `yaml:"model"`
}

// builtinDescriptors is a subset of descriptor.c's g_descriptors table
// covering the two families this core implements drivers for.
var builtinDescriptors = []Descriptor{
	{"Cressi", "Leonardo", "cressi_leonardo", 0x01},
	{"Cressi", "Giotto", "cressi_leonardo", 0x04},
	{"Cressi", "Newton", "cressi_leonardo", 0x05},
	{"Cressi", "Drake", "cressi_leonardo", 0x06},

	{"Uwatec", "Smart Pro", "uwatec_smart", 0x10},
	{"Uwatec", "Galileo Sol", "uwatec_smart", 0x11},
	{"Uwatec", "Galileo Luna", "uwatec_smart", 0x11},
	{"Uwatec", "Galileo Terra", "uwatec_smart", 0x11},
	{"Uwatec", "Aladin Tec", "uwatec_smart", 0x12},
	{"Uwatec", "Aladin Prime", "uwatec_smart", 0x12},
	{"Uwatec", "Aladin Tec 2G", "uwatec_smart", 0x13},
	{"Uwatec", "Aladin 2G", "uwatec_smart", 0x13},
	{"Subgear", "XP-10", "uwatec_smart", 0x13},
	{"Uwatec", "Smart Com", "uwatec_smart", 0x14},
	{"Uwatec", "Aladin Tec 3G", "uwatec_smart", 0x15},
	{"Uwatec", "Aladin Sport", "uwatec_smart", 0x15},
	{"Subgear", "XP-3G", "uwatec_smart", 0x15},
	{"Uwatec", "Smart Tec", "uwatec_smart", 0x18},
	{"Uwatec", "Galileo Trimix", "uwatec_smart", 0x19},
	{"Uwatec", "Smart Z", "uwatec_smart", 0x1C},
	{"Subgear", "XP Air", "uwatec_smart", 0x1C},
}

// enumIrdaAllowlist is the set of advertised IrDA device names the
// enumeration driver's Open accepts, grounded on uwatec_smart.c's
// uwatec_smart_filter's irda[] table.
var enumIrdaAllowlist = []string{
	"Aladin Smart Com",
	"Aladin Smart Pro",
	"Aladin Smart Tec",
	"Aladin Smart Z",
	"Uwatec Aladin",
	"UWATEC Galileo",
	"UWATEC Galileo Sol",
}

// matchesAllowlist reports whether name matches an entry in names,
// case-insensitively, per spec.md §4.5 step 2.
func matchesAllowlist(name string, names []string) bool {
	for _, n := range names {
		if equalFold(name, n) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// LoadDescriptors reads a YAML-encoded descriptor table from path and
// returns its entries. The file is parsed, validated and normalized by
// internal/config, the same declarative-Validate/mutating-Normalize
// pipeline the rest of this project's configuration goes through: a
// top-level `descriptors:` list of {vendor, product, family, model}.
// The returned descriptors are not merged into builtinDescriptors or
// enumIrdaAllowlist; NewEnumDriver filters candidates against
// enumIrdaAllowlist only.
func LoadDescriptors(path string) ([]Descriptor, status.Status) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, status.IO
	}

	var doc config.DescriptorFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, status.DataFormat
	}
	if err := config.Validate(&doc); err != nil {
		return nil, status.DataFormat
	}
	config.Normalize(&doc)

	out := make([]Descriptor, len(doc.Descriptors))
	for i, e := range doc.Descriptors {
		out[i] = Descriptor{Vendor: e.Vendor, Product: e.Product, Family: e.Family, Model: e.Model}
	}
	return out, status.Success
}
