package validator

import (
	"github.com/go-playground/validator/v10"
)

// RequestValidator bridges go-playground/validator into echo's Validator
// hook so bound request DTOs are checked against their struct tags before a
// handler sees them.
type RequestValidator struct {
	validate *validator.Validate
}

// New returns a validator ready to be assigned to echo.Echo.Validator
func New() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate reports the first tag violation on i, nil when the struct is valid
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}
