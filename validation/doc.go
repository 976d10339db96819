// Package validation checks configuration and request values.
//
// Config structs use struct tags, validated with go-playground/validator;
// field names in messages follow the mapstructure keys so they match the
// YAML the user wrote:
//
//	type Deployment struct {
//	    MinAccuracy float64 `mapstructure:"min_accuracy" validate:"gte=0,lte=1"`
//	}
//	err := validation.Validate(cfg)
//
// Values without tags go through the collecting Validator:
//
//	err := validation.New().RequiredUUID("uuid", arg).Validate()
package validation
