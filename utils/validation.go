// utils/validation.go
package utils

import (
	"errors"
	"regexp"
	"strings"
)

var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

func cleanPhone(phone string) string {
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	return cleaned
}

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(cleanPhone(phone))
}

// NormalizePhone converts a phone number to the format the SMS gateway
// expects: E.164 digits without the leading "+".
func NormalizePhone(phone string) (string, error) {
	cleaned := cleanPhone(phone)
	if !phoneRegex.MatchString(cleaned) {
		return "", errors.New("invalid phone number: " + phone)
	}
	return strings.TrimPrefix(cleaned, "+"), nil
}
