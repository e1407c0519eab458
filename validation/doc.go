// Package validation validates configuration structs with
// go-playground/validator struct tags and reports failures as
// INVALID_INPUT AppErrors listing every offending field.
//
//	type Paths struct {
//	    OutputDir string `mapstructure:"output_dir" validate:"required"`
//	}
//	err := validation.Validate(cfg)
package validation
