package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

// MaxInputLength caps sanitized input, in characters.
const MaxInputLength = 10000

// Sanitize strips angle brackets, trims whitespace and caps the result at MaxInputLength runes.
func Sanitize(input string) string {
	s := strings.TrimSpace(strings.NewReplacer("<", "", ">", "").Replace(input))
	if len(s) <= MaxInputLength {
		return s
	}
	n := 0
	for i := range s {
		if n == MaxInputLength {
			return s[:i]
		}
		n++
	}
	return s
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONError writes {"error": msg}.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
