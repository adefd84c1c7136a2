// Package validator provides custom validation functions for Gin's binding
// engine and free-text sanitizing.
package validator

import (
	"html"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"treasurytracker/internal/models"
)

// strictPolicy strips every HTML tag and attribute.
var strictPolicy = bluemonday.StrictPolicy()

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("investment_type", validateInvestmentType)
	_ = v.RegisterValidation("investment_status", validateInvestmentStatus)
	_ = v.RegisterValidation("payment_status", validatePaymentStatus)
}

func validateInvestmentType(fl validator.FieldLevel) bool {
	return models.InvestmentType(fl.Field().String()).Valid()
}

func validateInvestmentStatus(fl validator.FieldLevel) bool {
	return models.InvestmentStatus(fl.Field().String()).Valid()
}

func validatePaymentStatus(fl validator.FieldLevel) bool {
	return models.PaymentStatus(fl.Field().String()).Valid()
}

// SanitizeText removes HTML markup and unprintable characters and trims
// surrounding whitespace. The result is plain text: entities the policy
// emits are decoded again, so "T&C" is stored as typed.
func SanitizeText(s string) string {
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' {
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(s)
}
