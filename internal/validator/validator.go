package validator

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError - ошибки по полям запроса: json-имя поля -> сообщение
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e.Errors[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator - go-playground/validator с правилами каталога и платежей
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// клиент видит поля под json-именами
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	registerCustomRules(v)

	return &Validator{validate: v}
}

// Validate возвращает *ValidationError для ошибок правил, остальное как есть
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = message(fe)
	}
	return &ValidationError{Errors: out}
}

func message(fe validator.FieldError) string {
	textual := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "url":
		return "Enter a valid URL"
	case "min":
		if textual {
			return fmt.Sprintf("Ensure this field has at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s", fe.Param())
	case "max":
		if textual {
			return fmt.Sprintf("Ensure this field has no more than %s characters", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s", fe.Param())
	case "is-http-method", "is-payment-method", "is-payment-status":
		return fmt.Sprintf("%q is not a valid choice", fmt.Sprint(fe.Value()))
	case "is-slug":
		return "Enter a valid slug consisting of lowercase letters, numbers or hyphens"
	default:
		return fmt.Sprintf("Invalid value (failed on '%s' rule)", fe.Tag())
	}
}
