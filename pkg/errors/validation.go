package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds widget and page identifiers.
const maxIDLength = 128

// ValidateID validates a widget or page identifier for safety.
// IDs end up in file names, SQL parameters and URL paths, so the rules are
// conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "%s id cannot be empty", kind)
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "%s id too long (max %d characters)", kind, maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "%s id contains invalid control characters", kind)
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
			return New(ErrCodeInvalidID, "%s id contains invalid characters: %q", kind, pattern)
		}
	}

	return nil
}

// ValidateWidgetID validates a widget identifier.
func ValidateWidgetID(id string) error {
	return ValidateID("widget", id)
}

// ValidatePageID validates a page identifier.
func ValidatePageID(id string) error {
	return ValidateID("page", id)
}

// ValidatePath validates a page file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - Extension must be .json, .yaml or .yml
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	lower := strings.ToLower(path)
	if !strings.HasSuffix(lower, ".json") && !strings.HasSuffix(lower, ".yaml") && !strings.HasSuffix(lower, ".yml") {
		return New(ErrCodeInvalidPath, "page file must be .json, .yaml or .yml: %q", path)
	}

	return nil
}
