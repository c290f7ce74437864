package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxTextLength bounds node text and option labels.
const MaxTextLength = 4096

// ValidateDialogueName validates the display name of a saved dialogue.
//
// The rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 128 characters
func ValidateDialogueName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "dialogue name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "dialogue name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "dialogue name contains invalid control characters")
		}
	}

	return nil
}

// ValidateText validates node text and choice option labels.
// Newlines and tabs are allowed since dialogue lines are often multi-line.
func ValidateText(text string) error {
	if len(text) > MaxTextLength {
		return New(ErrCodeInvalidInput, "text too long (max %d characters)", MaxTextLength)
	}

	for _, r := range text {
		if r == '\n' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "text contains invalid control characters")
		}
	}

	return nil
}

// storeIDRegex matches identifiers safe to use as file names and store keys.
var storeIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidateStoreID validates a saved-dialogue identifier.
// File-backed stores use the ID as a file name, so path separators,
// traversal sequences and hidden names are rejected.
func ValidateStoreID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidPath, "dialogue id cannot be empty")
	}

	if !storeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidPath, "invalid dialogue id: %q", id)
	}

	return nil
}
