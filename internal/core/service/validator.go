package service

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/99minutos/user-management/internal/core/domain"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,4}$`)

// newUser is the validation view of a create request.
// Field order is the order rules are reported in.
type newUser struct {
	FirstName string `validate:"notblank"`
	LastName  string `validate:"notblank"`
	Email     string `validate:"notblank,useremail"`
	Stack     string `validate:"notblank"`
}

// newUserValidator returns a validator with the user-specific tags registered.
func newUserValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("useremail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// validateFields checks only the named fields and reports the first violation
// as a *domain.ValidationError.
func validateFields(v *validator.Validate, u newUser, fields ...string) error {
	err := v.StructPartial(u, fields...)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return fieldError(ve[0])
	}
	return err
}

// fieldError converts a single FieldError into the user-facing rule message.
func fieldError(fe validator.FieldError) *domain.ValidationError {
	switch fe.StructField() {
	case "FirstName":
		return &domain.ValidationError{Field: "firstName", Message: "First name is required"}
	case "LastName":
		return &domain.ValidationError{Field: "lastName", Message: "Last name is required"}
	case "Email":
		if fe.Tag() == "useremail" {
			return &domain.ValidationError{Field: "email", Message: "Check email and input correct email address"}
		}
		return &domain.ValidationError{Field: "email", Message: "Email is required"}
	case "Stack":
		return &domain.ValidationError{Field: "stack", Message: "Tech stack is required"}
	default:
		return &domain.ValidationError{Field: fe.Field(), Message: fe.Field() + " is invalid"}
	}
}
