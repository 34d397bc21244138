// Package validation validates configuration structs with go-playground/validator.
//
// Field names in messages come from the mapstructure tag, so errors name the
// same keys that appear in config.yml:
//
//	type Config struct {
//	    Buffer  int    `mapstructure:"buffer" validate:"min=0"`
//	    Backend string `mapstructure:"backend" validate:"oneof=memory pipe"`
//	}
//	err := validation.Validate(cfg) // buffer: must be at least 0
package validation
