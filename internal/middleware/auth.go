package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyAuth validates the bearer key in the Authorization header against keys.
// With no keys configured every request passes.
func APIKeyAuth(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				WriteJSONError(w, http.StatusUnauthorized, "Missing API key")
				return
			}

			// Support both "Bearer <key>" and "<key>" formats
			apiKey := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			// constant-time, cek semua key
			valid := 0
			for _, key := range keys {
				valid |= subtle.ConstantTimeCompare([]byte(apiKey), []byte(key))
			}
			if apiKey == "" || valid != 1 {
				WriteJSONError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
