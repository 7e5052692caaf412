package utils

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ValidatePINRule is the `pin` binding rule: 4 to 12 digits. Masked legacy
// PINs were migrated to this shape; anything else is a client bug.
func ValidatePINRule(fl validator.FieldLevel) bool {
	pin := fl.Field().String()
	if len(pin) < 4 || len(pin) > 12 {
		return false
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
