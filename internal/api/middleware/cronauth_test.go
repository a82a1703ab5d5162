package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routewise/routewise/internal/api/middleware"
)

func cronProtected(secret string) http.Handler {
	return middleware.CronSecret(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCronSecretAccepted(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/trigger/location-poll", nil)
	req.Header.Set("Authorization", "Bearer hunter2")
	w := httptest.NewRecorder()

	cronProtected("hunter2").ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCronSecretRejected(t *testing.T) {
	cases := map[string]func(*http.Request){
		"missing header": func(r *http.Request) {},
		"wrong secret":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer wrong") },
		"not bearer":     func(r *http.Request) { r.Header.Set("Authorization", "Basic hunter2") },
	}

	for name, decorate := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/trigger/location-poll", nil)
			decorate(req)
			w := httptest.NewRecorder()

			cronProtected("hunter2").ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
		})
	}
}

func TestCronSecretEmptyConfiguredSecretRejectsAll(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/trigger/location-poll", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()

	cronProtected("").ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
