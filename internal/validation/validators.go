package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("tag", validateTag); err != nil {
		panic(fmt.Sprintf("failed to register tag validator: %v", err))
	}
}

// validateTag validates that a string is a usable tag: non-blank after
// trimming and free of control characters
func validateTag(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// ParseUserID validates and parses a user ID path parameter
func ParseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID: must be a UUID")
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid user ID: must not be the zero UUID")
	}
	return id, nil
}

// SanitizeTag sanitizes a tag by trimming whitespace and removing control characters
func SanitizeTag(tag string) string {
	tag = strings.TrimSpace(tag)

	var sanitized strings.Builder
	for _, r := range tag {
		if unicode.IsControl(r) {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
