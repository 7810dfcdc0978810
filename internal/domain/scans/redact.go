package scans

import "unicode/utf8"

const (
	// RedactedInput replaces the submitted password in every stored record.
	RedactedInput = "[PROTECTED]"
	// MaxMessageInput is the number of characters of a message kept in its record.
	MaxMessageInput = 200
)

// RedactInput applies the per-type storage policy to already sanitized input.
func RedactInput(t Type, input string) string {
	switch t {
	case TypePassword:
		return RedactedInput
	case TypeMessage:
		return truncate(input, MaxMessageInput)
	default:
		return input
	}
}

// truncate keeps the first n characters (runes) of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
