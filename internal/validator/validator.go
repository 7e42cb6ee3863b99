// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var last4Regex = regexp.MustCompile(`^[0-9]{4}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerAll(v)
	}
}

func registerAll(v *validator.Validate) {
	// Field errors report the JSON/form name the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	_ = v.RegisterValidation("card_last4", validateCardLast4)
	_ = v.RegisterValidation("property_status", oneOf("draft", "active", "funding", "funded", "completed", "cancelled"))
	_ = v.RegisterValidation("property_type", oneOf("residential", "commercial", "industrial", "land", "mixed_use"))
	_ = v.RegisterValidation("investment_status", oneOf("pending", "confirmed", "cancelled", "refunded"))
	_ = v.RegisterValidation("document_type", oneOf("contract", "statement", "tax", "identity", "other"))
	_ = v.RegisterValidation("payment_method_type", oneOf("card", "bank_transfer"))
	_ = v.RegisterValidation("sort_order", oneOf("asc", "desc"))
}

func validateCardLast4(fl validator.FieldLevel) bool {
	return last4Regex.MatchString(fl.Field().String())
}

func oneOf(values ...string) validator.Func {
	allowed := make(map[string]bool, len(values))
	for _, v := range values {
		allowed[v] = true
	}
	return func(fl validator.FieldLevel) bool {
		return allowed[fl.Field().String()]
	}
}
