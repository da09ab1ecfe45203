// Package validation wraps go-playground/validator with the alert-specific tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/t77yq/alert-dashboard/internal/apperr"
	"github.com/t77yq/alert-dashboard/internal/model"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// instance returns the shared validator. validator.Validate caches struct
// metadata and is safe for concurrent use.
func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// report json/mapstructure names instead of Go field names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"json", "form", "mapstructure"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		mustRegister(v, "timestamp", func(fl validator.FieldLevel) bool {
			_, err := model.ParseTimestamp(fl.Field().String())
			return err == nil
		})
		mustRegister(v, "yearmonth", func(fl validator.FieldLevel) bool {
			_, err := model.ParseYearMonth(fl.Field().String())
			return err == nil
		})
		mustRegister(v, "severity", func(fl validator.FieldLevel) bool {
			return model.AlertSeverity(fl.Field().String()).Valid()
		})

		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// Struct validates s against its `validate` tags. It returns nil or an
// *apperr.Error with code VALIDATION_ERROR listing every rejected field.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.New(apperr.CodeInternal, "validation failed", err)
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:  fe.Field(),
			Reason: reason(fe),
		})
	}
	return apperr.Validation(fields...)
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "timestamp":
		return "must be a valid date/time"
	case "yearmonth":
		return model.ErrInvalidMonth.Error()
	case "severity":
		return "must be one of [LOW MEDIUM HIGH CRITICAL]"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
