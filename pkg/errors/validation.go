package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// documentIDRegex matches ids accepted by the document stores: uuids, the
// builder's generated ids, and other simple slugs.
var documentIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateDocumentID validates a stored document id for safety.
// Ids become file names in the file store and keys in MongoDB, so the
// rules reject anything that could escape a directory:
//   - No empty ids
//   - Maximum length of 128 characters
//   - No control characters, separators or traversal sequences
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "document id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "document id too long (max 128 characters)")
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidInput, "document id cannot contain %q", "..")
	}
	if !documentIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid document id: %q", id)
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
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

// ValidateURL validates a script URL used by the HTML emitter.
// Absolute URLs must use http or https; relative paths (e.g. "js/mpld3.js")
// are accepted so pages can ship their scripts alongside.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, r := range rawURL {
		if unicode.IsControl(r) || r == '"' || r == '<' || r == '>' {
			return New(ErrCodeInvalidInput, "URL contains invalid characters")
		}
	}
	if i := strings.Index(rawURL, "://"); i >= 0 {
		scheme := rawURL[:i]
		if scheme != "http" && scheme != "https" {
			return New(ErrCodeInvalidInput, "URL must use http or https scheme")
		}
	} else if strings.HasPrefix(strings.ToLower(rawURL), "javascript:") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}
