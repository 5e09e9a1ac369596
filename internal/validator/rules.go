package validator

import (
	"log"
	"regexp"

	"apimarket_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// registerCustomRules регистрирует правила для перечислений из models
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// ошибка конфигурации, приложение не должно стартовать
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-http-method", validateHTTPMethod)
	mustRegister("is-payment-method", validatePaymentMethod)
	mustRegister("is-payment-status", validatePaymentStatus)
	mustRegister("is-slug", validateSlug)
}

// Пустые значения пропускаются: для них есть 'required'

func validateHTTPMethod(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.HTTPMethod(value).Valid()
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.PaymentMethod(value).Valid()
}

func validatePaymentStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.PaymentStatus(value).Valid()
}

func validateSlug(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slugPattern.MatchString(value)
}
