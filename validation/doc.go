// Package validation checks request values before they reach a handler.
//
// Struct tags are evaluated with go-playground/validator; requests may add
// their own checks by implementing Validatable. Failures are returned as an
// errors.AppError with code VALIDATION_ERROR and a per-field breakdown:
//
//	type CreateOrder struct {
//	    Customer string `json:"customer" validate:"required,uuid"`
//	    Quantity int    `json:"quantity" validate:"min=1"`
//	}
//	err := validation.Validate(cmd)
package validation
