package errors

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// nodeIDRegex matches node ids usable in scene files and HCL references.
var nodeIDRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// ValidateNodeID validates the id of a scene node.
//
// Ids must start with a letter or underscore and contain only letters,
// digits, underscores and dashes, so they can be used unquoted as relation
// targets. The id "container" is reserved for the enclosing container.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidScene, "node id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidScene, "node id too long (max 128 characters)")
	}
	if !nodeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidScene, "invalid node id: %q", id)
	}
	if id == "container" {
		return New(ErrCodeInvalidScene, "node id %q is reserved", id)
	}
	return nil
}

// ValidatePath validates a file path referenced from a scene file.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative to the scene file)
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

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateFormat checks that format is one of allowed (case-sensitive).
func ValidateFormat(format string, allowed ...string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !slices.Contains(allowed, format) {
		return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
	}
	return nil
}

// ValidateSceneFilename checks that filename names a TOML or HCL scene.
func ValidateSceneFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidInput, "scene filename cannot be empty")
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml", ".hcl":
		return nil
	}
	return New(ErrCodeInvalidFormat, "scene file must end in .toml or .hcl: %q", filepath.Base(filename))
}

// ValidateURL validates a URL string for safety.
// It ensures the URL uses one of the given schemes (http and https when none
// are given).
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}

	// Simple scheme validation without full URL parsing
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes: %s", strings.Join(schemes, ", "))
}
