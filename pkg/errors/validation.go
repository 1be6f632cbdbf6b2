package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const maxNameLength = 256

// ValidateLibraryName validates a merge group (output library) name.
// Library names end up as file names inside an application package, so
// the rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateLibraryName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "library name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidConfig, "library name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "library name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidConfig, "library name %q contains invalid characters: %q", name, pattern)
		}
	}

	return nil
}

// identifierRegex matches platform and module names.
var identifierRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidatePlatformName validates a build platform name such as
// "android-arm64". Platform names key cache entries and HTTP responses.
func ValidatePlatformName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "platform name cannot be empty")
	}
	if len(name) > maxNameLength || !identifierRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid platform name: %q", name)
	}
	return nil
}

// ValidateModuleName validates a feature module name. Module names are
// appended to library names, so they follow the same character rules as
// platform names.
func ValidateModuleName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "module name cannot be empty")
	}
	if len(name) > maxNameLength || !identifierRegex.MatchString(name) {
		return New(ErrCodeInvalidConfig, "invalid module name: %q", name)
	}
	return nil
}
