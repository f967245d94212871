// Package validation provides input validation rules built on ozzo-validation.
package validation

import (
	"regexp"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
)

func hasRune(pred func(rune) bool, msg string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		for _, r := range s {
			if pred(r) {
				return nil
			}
		}
		return validation.NewError("validation_password_class", msg)
	})
}

// PasswordRules are the account password requirements.
func PasswordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("password is required"),
		validation.RuneLength(12, 128).Error("password must be 12-128 characters"),
		hasRune(unicode.IsUpper, "password must contain at least one uppercase letter"),
		hasRune(unicode.IsLower, "password must contain at least one lowercase letter"),
		validation.Match(digitRegex).Error("password must contain at least one digit"),
		validation.Match(specialRegex).Error("password must contain at least one special character (!@#$%^&*)"),
	}
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	return validation.Validate(password, PasswordRules()...)
}

// EmailRules validate a required address of at most 254 characters.
func EmailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("email is required"),
		validation.Length(3, 254).Error("email must not exceed 254 characters"),
		is.EmailFormat.Error("invalid email format"),
	}
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	return validation.Validate(email, EmailRules()...)
}
