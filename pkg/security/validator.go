package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameLength is the longest first or last name the backend stores.
const MaxNameLength = 100

var (
	ErrNameEmpty   = errors.New("name is empty")
	ErrNameTooLong = errors.New("name too long")
	ErrNameInvalid = errors.New("name contains invalid characters")
)

// markupPatterns catch names that would be dangerous once rendered in a web view.
var markupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(<script|</script|javascript:|vbscript:|onload=|onerror=)`),
	regexp.MustCompile(`(?i)(--|/\*|\*/)`),
}

// ValidateName trims a first or last name and checks it only holds letters,
// marks, spaces, hyphens, apostrophes and dots.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameEmpty
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrNameTooLong
	}

	for _, pattern := range markupPatterns {
		if pattern.MatchString(name) {
			return "", ErrNameInvalid
		}
	}

	for _, char := range name {
		if !isValidNameChar(char) {
			return "", ErrNameInvalid
		}
	}

	return name, nil
}

// isValidNameChar checks if a character may appear in a person's name
func isValidNameChar(char rune) bool {
	return unicode.IsLetter(char) || unicode.Is(unicode.Mn, char) ||
		char == ' ' || char == '-' || char == '\'' || char == '’' || char == '.'
}
