package validator

import (
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	// Initialize validation
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterTags(validate); err != nil {
		panic(err)
	}
}

// RegisterTags adds the project's custom tags to v:
//
//	maxbytes=N  string is at most N bytes long (max=N counts runes)
func RegisterTags(v *validator.Validate) error {
	return v.RegisterValidation("maxbytes", maxBytes)
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	return validate.Struct(s)
}

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}
