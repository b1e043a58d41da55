package rules

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// emailPattern is the inline pattern spec.md §4.4 gives verbatim:
// ^[^@\s]+@[^@\s]+\.[^@\s]+$. It is deliberately permissive (no RFC 5322
// validation); isURL's check below is equally permissive for the
// "scheme+authority present" requirement.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// MatchesCharClass reports whether s satisfies the named character class.
func MatchesCharClass(class CharClass, s string) bool {
	switch class {
	case Numeric:
		return matchesAll(s, isASCIIDigit)
	case Alpha:
		return matchesAll(s, unicode.IsLetter)
	case Alphanumeric:
		return matchesAll(s, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		})
	case Lowercase:
		return s != "" && s == strings.ToLower(s) && matchesAny(s, unicode.IsLetter)
	case Uppercase:
		return s != "" && s == strings.ToUpper(s) && matchesAny(s, unicode.IsLetter)
	case Email:
		return isEmail(s)
	case URL:
		return isURL(s)
	case UUID:
		_, err := uuid.Parse(s)
		return err == nil
	default:
		return false
	}
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

func matchesAll(s string, pred func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

func matchesAny(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if pred(r) {
			return true
		}
	}
	return false
}

// isEmail matches s against emailPattern.
func isEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// isURL checks for an "http://" or "https://" scheme followed by a
// non-empty host.
func isURL(s string) bool {
	rest, ok := strings.CutPrefix(s, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(s, "http://")
	}
	if !ok || rest == "" {
		return false
	}
	host := rest
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		host = rest[:i]
	}
	return host != ""
}
