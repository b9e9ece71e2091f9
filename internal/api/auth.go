package api

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RequireToken guards a handler with a bearer token checked against a bcrypt
// hash. Comparison cost is acceptable here: the analyze endpoint is already
// the slow path.
func RequireToken(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
