package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateTranscript validates an uploaded transcript body.
func ValidateTranscript(content string, maxBytes int64) error {
	if len(content) == 0 {
		return errors.New("transcript cannot be empty")
	}
	if int64(len(content)) > maxBytes {
		return errors.New("transcript exceeds maximum size")
	}
	if !utf8.ValidString(content) {
		return errors.New("transcript must be valid UTF-8")
	}
	return nil
}

// ValidateProfileID validates a personality profile ID.
func ValidateProfileID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid profile ID format")
	}
	return nil
}

// ValidateUserID validates a hub user identifier.
func ValidateUserID(id string) error {
	if len(id) == 0 {
		return errors.New("user ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("user ID exceeds maximum length")
	}
	return nil
}
