package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"cabanas/internal/models"

	"github.com/go-playground/validator/v10"
)

// requestValidator checks struct tags and reports failures keyed by JSON field name.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

// Struct returns per-field messages, or nil when s is valid.
func (v *requestValidator) Struct(s interface{}) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return "is invalid"
	}
}

// parseStay parses a YYYY-MM-DD range and checks check-out is after check-in.
func parseStay(checkIn, checkOut string) (time.Time, time.Time, map[string]string) {
	fields := make(map[string]string)

	in, err := time.Parse(models.DateLayout, strings.TrimSpace(checkIn))
	if err != nil {
		fields["check_in"] = "must be a date in YYYY-MM-DD format"
	}
	out, err := time.Parse(models.DateLayout, strings.TrimSpace(checkOut))
	if err != nil {
		fields["check_out"] = "must be a date in YYYY-MM-DD format"
	}
	if len(fields) > 0 {
		return time.Time{}, time.Time{}, fields
	}

	if !in.Before(out) {
		fields["check_out"] = "must be after the check-in date"
		return time.Time{}, time.Time{}, fields
	}
	return in, out, nil
}
