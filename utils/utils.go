package utils

import (
	// Go Internal Packages
	"regexp"
	"strings"
)

// Cameroon mobile money numbers: 9 digits starting with 6, after the
// optional +237/237 country prefix is stripped.
var phonePattern = regexp.MustCompile(`^6[256789][0-9]{7}$`)

// NormalizePhone strips spaces, dashes and the country prefix so numbers
// compare and validate in one canonical form.
func NormalizePhone(raw string) string {
	s := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(raw)
	s = strings.TrimPrefix(s, "+237")
	s = strings.TrimPrefix(s, "237")
	return s
}

// ValidPhone reports whether the given number, once normalized, is a
// dialable mobile money number.
func ValidPhone(raw string) bool {
	return phonePattern.MatchString(NormalizePhone(raw))
}

// MaskPhone hides the middle digits for logs, keeping enough to recognise
// the number: 650123456 -> 650*****6.
func MaskPhone(raw string) string {
	s := NormalizePhone(raw)
	if len(s) < 5 {
		return "***"
	}
	return s[:3] + strings.Repeat("*", len(s)-4) + s[len(s)-1:]
}
