package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

// PatientGenders are the accepted values of a booking's patient gender
var PatientGenders = []string{"Male", "Female", "Other", "Not specified"}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func commandValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		_ = validate.RegisterValidation("patient_gender", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			for _, g := range PatientGenders {
				if value == g {
					return true
				}
			}
			return false
		})
	})
	return validate
}

// validateCommand checks cmd against its validate tags and returns a
// validation AppError naming every failing field
func validateCommand(cmd any) error {
	err := commandValidator().Struct(cmd)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return apperrors.NewValidationError(strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "patient_gender":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.Join(PatientGenders, ", "))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
