// Package validation checks operator arguments and configuration structs.
//
// Struct tag validation is used for configuration (report config, operator
// specs); the programmatic Validator collects field errors where the rules
// depend on runtime values such as reserved header keys.
//
//	type windowSpec struct {
//	    Size int `validate:"min=1"`
//	}
//	err := validation.ValidateFor("window", windowSpec{Size: size})
//
//	v := validation.New()
//	v.Reserved("header", keys, "kind", "id")
//	err := v.Error("recorder")
//
// Every failure is an *errors.AppError with code INVALID_CONFIG.
package validation
