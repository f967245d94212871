package validation

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"blogpost/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var httpSchemeRegex = regexp.MustCompile(`(?i)^https?://`)

// TitleRules: required, at most 255 characters.
func TitleRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("title is required"),
		validation.RuneLength(1, 255).Error("title must not exceed 255 characters"),
	}
}

// TextRules: required.
func TextRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("text is required"),
	}
}

// CategoryRule accepts the known category codes.
var CategoryRule = validation.By(func(value interface{}) error {
	var c models.Category
	switch v := value.(type) {
	case models.Category:
		c = v
	case *models.Category:
		if v == nil {
			return nil
		}
		c = *v
	default:
		return validation.NewError("validation_category_type", "category must be an integer")
	}
	if !c.Valid() {
		return validation.NewError("validation_category_invalid", "category must be between 1 and 5")
	}
	return nil
})

// WebsiteRules accept an empty value or an absolute http(s) URL of at most 200 characters.
func WebsiteRules() []validation.Rule {
	return []validation.Rule{
		validation.RuneLength(0, 200).Error("website must not exceed 200 characters"),
		validation.Match(httpSchemeRegex).Error("website must be an http or https URL"),
		is.URL.Error("website must be a valid URL"),
	}
}

// NameRules: required, at most 100 characters.
func NameRules(field string) []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(field + " is required"),
		validation.RuneLength(1, 100).Error(field + " must not exceed 100 characters"),
	}
}

// OptionalEmailRules validate an address only when one is given.
func OptionalEmailRules() []validation.Rule {
	return []validation.Rule{
		validation.Length(0, 254).Error("email must not exceed 254 characters"),
		is.EmailFormat.Error("invalid email format"),
	}
}

// NotInFuture rejects dates after today.
func NotInFuture(now func() time.Time) validation.Rule {
	return validation.By(func(value interface{}) error {
		var t *time.Time
		switch v := value.(type) {
		case time.Time:
			t = &v
		case *time.Time:
			t = v
		}
		if t == nil {
			return nil
		}
		if t.After(now()) {
			return validation.NewError("validation_date_future", "date must not be in the future")
		}
		return nil
	})
}

// ToAppError converts ozzo validation output into a ValidationError.
// Field errors are joined in field order so messages are stable.
func ToAppError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		keys := make([]string, 0, len(fieldErrs))
		for k := range fieldErrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+fieldErrs[k].Error())
		}
		return models.NewValidationError(strings.Join(parts, "; "))
	}

	var internalErr validation.InternalError
	if errors.As(err, &internalErr) {
		return models.NewInternalError(err)
	}
	return models.NewValidationError(err.Error())
}
