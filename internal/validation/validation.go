package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// EmailRegex validates email format
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// HexColorRegex validates "#" followed by 3 or 6 hex digits
	hexColorRegex = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)
)

const (
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	MaxPasswordBytes = 72

	MaxNameLength        = 200
	MaxDescriptionLength = 4000
)

// IsValidEmail checks if the string is a valid email format
func IsValidEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// IsValidHexColor checks for #RGB or #RRGGBB
func IsValidHexColor(color string) bool {
	return hexColorRegex.MatchString(color)
}

// IsValidPassword checks the registration password policy: at least one
// digit, one uppercase letter and eight characters.
func IsValidPassword(password string) (bool, string) {
	if len(password) > MaxPasswordBytes {
		return false, "Password must be at most 72 bytes"
	}

	var (
		hasUpper  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case char >= 'A' && char <= 'Z':
			hasUpper = true
		case char >= '0' && char <= '9':
			hasNumber = true
		}
	}

	if !hasNumber || !hasUpper || utf8.RuneCountInString(password) < MinPasswordLength {
		return false, "Password must have a digit, upper case character and a minimum of 8 characters"
	}

	return true, ""
}

// IsWithinLength reports whether s has at most max characters.
func IsWithinLength(s string, max int) bool {
	return utf8.RuneCountInString(s) <= max
}

// SanitizeString removes potentially dangerous characters for display
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	// Remove control characters except newlines and tabs
	var result strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}
