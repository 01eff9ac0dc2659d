// Package validation checks configuration and command input.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Both report
// INVALID_INPUT errors carrying the offending fields.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    URL     string        `yaml:"url" validate:"required"`
//	    Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Custom(user == "" || pass != "", "password", "is required with username")
//	err := v.Validate()
package validation
