package normalize

import (
	"strings"
)

// Func post-processes a raw field value extracted from markup.
type Func func(string) string

// Identity leaves the value untouched.
func Identity(s string) string {
	return s
}

// TrimSpace removes leading and trailing whitespace; inner whitespace is kept.
func TrimSpace(s string) string {
	return strings.TrimSpace(s)
}

// StripOffsets drops a fixed number of leading and trailing characters (runes).
// Text too short to hold both yields "".
func StripOffsets(prefix, suffix int) Func {
	return func(s string) string {
		r := []rune(s)
		end := len(r) - suffix
		if prefix >= end {
			return ""
		}
		return string(r[prefix:end])
	}
}

// Prefix prepends base verbatim, without URL normalization.
func Prefix(base string) Func {
	return func(s string) string {
		return base + s
	}
}
