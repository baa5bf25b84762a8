package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/benvon/taskdeck/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	clockTimeRe = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but panic loudly if they do
	if err := Validate.RegisterValidation("recurrence_type", validateRecurrenceType); err != nil {
		panic(fmt.Sprintf("failed to register recurrence_type validator: %v", err))
	}
	if err := Validate.RegisterValidation("task_status", validateTaskStatus); err != nil {
		panic(fmt.Sprintf("failed to register task_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("clock_time", validateClockTime); err != nil {
		panic(fmt.Sprintf("failed to register clock_time validator: %v", err))
	}
}

// validateRecurrenceType validates that a string is a valid RecurrenceType enum value
func validateRecurrenceType(fl validator.FieldLevel) bool {
	switch models.RecurrenceType(fl.Field().String()) {
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly, models.RecurrenceYearly:
		return true
	default:
		return false
	}
}

// validateTaskStatus validates that a string is a valid Status enum value
func validateTaskStatus(fl validator.FieldLevel) bool {
	return models.IsValidStatus(models.Status(fl.Field().String()))
}

// validateClockTime validates an "HH:MM" time-of-day string
func validateClockTime(fl validator.FieldLevel) bool {
	return IsClockTime(fl.Field().String())
}

// IsClockTime reports whether s is a well-formed "HH:MM" time of day.
func IsClockTime(s string) bool {
	return clockTimeRe.MatchString(s)
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}
	return sanitized.String()
}
