// Package sanitizer normalises user input before it is validated or stored.
//
// Helpers share the func(string) string shape so they compose:
//
//	name = sanitizer.Apply(name, sanitizer.RemoveControlChars, sanitizer.SingleLine, sanitizer.Trim)
package sanitizer

import (
	"strings"
	"unicode"
)

// Apply runs transforms over value in order.
func Apply[T any](value T, transforms ...func(T) T) T {
	for _, transform := range transforms {
		value = transform(value)
	}
	return value
}

// Compose returns Apply bound to transforms.
func Compose[T any](transforms ...func(T) T) func(T) T {
	return func(value T) T {
		return Apply(value, transforms...)
	}
}

func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail trims and lowercases an address. The local part is left
// otherwise untouched so the code is always sent where the user typed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RemoveControlChars drops control characters except tab, CR and LF.
func RemoveControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// SingleLine joins lines and collapses runs of whitespace into one space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MaxLength truncates s to at most n runes.
func MaxLength(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
