package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// identRegex matches template IDs and marker names: a letter followed by
// letters, digits, dashes, underscores or dots.
var identRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)

const maxIdentLength = 128

// ValidateTemplateID validates a chunk template identifier.
//
// The validation rules are intentionally conservative because IDs end up in
// cache keys, DOT labels and archive documents:
//   - No empty IDs
//   - Maximum length of 128 characters
//   - Must start with a letter
//   - Only letters, digits, '.', '_' and '-'
func ValidateTemplateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidTemplate, "template id cannot be empty")
	}
	if len(id) > maxIdentLength {
		return New(ErrCodeInvalidTemplate, "template id too long (max %d characters)", maxIdentLength)
	}
	if !identRegex.MatchString(id) {
		return New(ErrCodeInvalidTemplate, "invalid template id: %q", id)
	}
	return nil
}

// ValidateMarkerName validates a dead-end marker name. An empty name is valid
// and means the socket has no marker.
func ValidateMarkerName(name string) error {
	if name == "" {
		return nil
	}
	if len(name) > maxIdentLength {
		return New(ErrCodeInvalidTemplate, "marker name too long (max %d characters)", maxIdentLength)
	}
	if !identRegex.MatchString(name) {
		return New(ErrCodeInvalidTemplate, "invalid marker name: %q", name)
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
