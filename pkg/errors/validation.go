package errors

import (
	"strings"
	"unicode"
)

// ValidateTreeID validates a tree identifier before it is used as a store
// key or file name. It rejects ids that could escape the store directory.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - Maximum length of 128 characters
//   - No control characters
//   - No path separators or traversal sequences
func ValidateTreeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidTreeID, "tree id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidTreeID, "tree id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTreeID, "tree id contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidTreeID, "tree id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateInfoKey validates a person info key.
//
// Keys are free-form labels; reserved display keys start with "@". A key
// must be non-empty, at most 64 characters and free of control characters
// and surrounding whitespace.
func ValidateInfoKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidKey, "info key cannot be empty")
	}

	if len(key) > 64 {
		return New(ErrCodeInvalidKey, "info key too long (max 64 characters)")
	}

	if strings.TrimSpace(key) != key {
		return New(ErrCodeInvalidKey, "info key cannot start or end with whitespace")
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidKey, "info key contains invalid control characters")
		}
	}

	return nil
}
