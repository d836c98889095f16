package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requestAPIKey pulls the caller's key from X-API-Key or, failing that,
// an Authorization: Bearer header.
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	const bearer = "Bearer "
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, bearer) {
		return strings.TrimPrefix(auth, bearer)
	}
	return ""
}

// APIKeyAuth guards the render API with a single shared backend key.
// Missing keys get 401, wrong keys 403, and the comparison is constant
// time.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestAPIKey(r)
			if key == "" {
				respondError(w, http.StatusUnauthorized, "Missing API key. Provide X-API-Key header or Authorization: Bearer <key>")
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				respondError(w, http.StatusForbidden, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
