package service

import (
	"net/mail"
	"strings"
	"time"

	"clinic-api/internal/util"
	"clinic-api/pkg/apierror"
)

const dateLayout = "2006-01-02"

// fieldErrors accumulates per-field validation failures.
type fieldErrors []apierror.FieldError

func (f *fieldErrors) add(field string, message string) {
	*f = append(*f, apierror.FieldError{Field: field, Message: message})
}

func (f fieldErrors) err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return apierror.Validation(message, f...)
}

func (f *fieldErrors) required(field string, value string) {
	if strings.TrimSpace(value) == "" {
		f.add(field, "is required")
	}
}

func (f *fieldErrors) maxLen(field string, value *string, max int) {
	if value != nil && len([]rune(*value)) > max {
		f.add(field, "is too long")
	}
}

func parseDate(raw string) (time.Time, bool) {
	value, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	return value, err == nil
}

func validTimeOfDay(raw string) bool {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}

func validEmail(raw string) bool {
	addr, err := mail.ParseAddress(raw)
	return err == nil && addr.Address == raw
}

// trimOptional normalises blank optional strings to nil.
func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := util.CleanLine(*value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// cleanNote is trimOptional for multi-line clinical text.
func cleanNote(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := util.CleanText(*value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// cleanPatch cleans a partial-update field without turning it into a no-op.
func cleanPatch(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := util.CleanLine(*value)
	return &cleaned
}
