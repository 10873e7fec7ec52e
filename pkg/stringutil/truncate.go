// Package stringutil provides helper functions for string
package stringutil

import "unicode/utf8"

const ellipsis = "..."

// Truncate truncates a string to the specified number of runes. A truncated
// string ends with "...", which counts towards length.
func Truncate(str string, length int) string {
	if length <= 0 {
		return ""
	}

	if utf8.RuneCountInString(str) <= length {
		return str
	}

	if length <= len(ellipsis) {
		return string([]rune(str)[:length])
	}

	return string([]rune(str)[:length-len(ellipsis)]) + ellipsis
}
