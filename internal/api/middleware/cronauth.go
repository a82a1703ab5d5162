package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/routewise/routewise/internal/api/models"
)

// CronSecret returns a middleware protecting manual trigger endpoints with a
// static bearer secret, matching the scheme the tracking backend uses for its
// cron routes. An empty configured secret rejects everything.
func CronSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				problem := models.NewUnauthorized(GetRequestID(r.Context()), "valid bearer secret required")
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	return auth[len(prefix):], true
}
