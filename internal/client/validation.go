package client

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	apperrors "userdesk/pkg/errors"
)

// createInput is what must hold locally before create.php is called.
type createInput struct {
	LastName  string `form:"nom" validate:"notblank"`
	FirstName string `form:"prenom" validate:"notblank"`
	Age       int    `form:"age" validate:"gt=0"`
}

// updateInput adds the persisted id to createInput's rules.
type updateInput struct {
	ID        int64  `form:"id" validate:"gt=0"`
	LastName  string `form:"nom" validate:"notblank"`
	FirstName string `form:"prenom" validate:"notblank"`
	Age       int    `form:"age" validate:"gt=0"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// notblank rejects whitespace-only names, which "required" lets through.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// formatValidationError converts validator.ValidationErrors into a single
// ValidationError naming every failed field.
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var messages []string
	var fields []string
	for _, e := range validationErrors {
		fields = append(fields, e.Field())
		switch e.Tag() {
		case "notblank":
			messages = append(messages, fmt.Sprintf("%s must not be blank", e.Field()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return apperrors.NewValidationError(strings.Join(fields, ","), strings.Join(messages, ", "))
}
