package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	zipTag     = "zip5"
	phoneTag   = "usphone"
	websiteTag = "website"
)

var (
	zipCodeRegex     = regexp.MustCompile(`^\d{5}$`)
	phoneCharsRegex  = regexp.MustCompile(`^\+?[0-9().\-\s]+$`)
	websiteHostRegex = regexp.MustCompile(`^[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)+$`)
)

func registerCustomValidators(validate *validator.Validate) error {
	custom := map[string]validator.Func{
		zipTag:     isZipCode,
		phoneTag:   isPhoneNumber,
		websiteTag: isWebsite,
	}
	for tag, fn := range custom {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}

func isZipCode(field validator.FieldLevel) bool {
	return zipCodeRegex.MatchString(field.Field().String())
}

func isPhoneNumber(field validator.FieldLevel) bool {
	value := strings.TrimSpace(field.Field().String())
	if !phoneCharsRegex.MatchString(value) {
		return false
	}
	digits := 0
	for _, char := range value {
		if char >= '0' && char <= '9' {
			digits++
		}
	}
	return digits >= 10
}

// isWebsite accepts addresses with or without a scheme, e.g. "example.com".
func isWebsite(field validator.FieldLevel) bool {
	value := strings.TrimSpace(field.Field().String())
	if value == "" {
		return false
	}
	if !strings.Contains(value, "://") {
		value = "https://" + value
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return websiteHostRegex.MatchString(parsed.Hostname())
}
