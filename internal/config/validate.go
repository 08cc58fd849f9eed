// internal/config/validate.go
package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *DescriptorFile) error {
	// ------------------------------------------------------------
	// FIELD VALIDATION
	// ------------------------------------------------------------

	for _, d := range cfg.Descriptors {
		if d.Vendor == "" {
			return fmt.Errorf("descriptor entry has an empty vendor")
		}
		if d.Product == "" {
			return fmt.Errorf("vendor %q: product must not be empty", d.Vendor)
		}
		if d.Family == "" {
			return fmt.Errorf("vendor %q product %q: family must not be empty", d.Vendor, d.Product)
		}
		if d.Model < 0 || d.Model > 0xFF {
			return fmt.Errorf("vendor %q product %q: model %d out of byte range", d.Vendor, d.Product, d.Model)
		}
	}

	// ------------------------------------------------------------
	// DUPLICATE (VENDOR, PRODUCT) DETECTION
	// ------------------------------------------------------------

	// key = vendor | product
	seen := make(map[string]int)

	for _, d := range cfg.Descriptors {
		key := fmt.Sprintf("%s|%s", d.Vendor, d.Product)
		if prevModel, exists := seen[key]; exists {
			return fmt.Errorf(
				"duplicate descriptor: vendor=%q product=%q declared with model %d and model %d",
				d.Vendor, d.Product, prevModel, d.Model,
			)
		}
		seen[key] = d.Model
	}

	return nil
}
