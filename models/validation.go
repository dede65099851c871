package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	// Money fields are validated by their float value.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		switch value := field.Interface().(type) {
		case decimal.Decimal:
			f, _ := value.Float64()
			return f
		case decimal.NullDecimal:
			if !value.Valid {
				return nil
			}
			f, _ := value.Decimal.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{}, decimal.NullDecimal{})

	return v
}

// ValidationError lists every field-level problem found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

// Validate checks the struct tags of a request value.
func Validate(value interface{}) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	problems := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		problems = append(problems, describe(fe))
	}
	return &ValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	unit := "characters"
	if fe.Kind() == reflect.Slice {
		unit = "items"
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must contain at least %s %s", field, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must contain at most %s %s", field, fe.Param(), unit)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// checkDateOrder reports end before start when both are present.
func checkDateOrder(start, end *Timestamp) error {
	if start == nil || end == nil {
		return nil
	}
	if end.Before(start.Time) {
		return &ValidationError{Problems: []string{"endDate must not be before startDate"}}
	}
	return nil
}

// merge folds a second validation result into the first.
func merge(first, second error) error {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	var a, b *ValidationError
	if errors.As(first, &a) && errors.As(second, &b) {
		return &ValidationError{Problems: append(append([]string{}, a.Problems...), b.Problems...)}
	}
	return first
}
