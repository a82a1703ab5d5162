package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routewise/routewise/internal/route"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{
		BaseURL:    srv.URL,
		CronSecret: "s3cret",
		HTTPClient: srv.Client(),
		Logger:     zerolog.Nop(),
	})
}

func TestPollLocations(t *testing.T) {
	var gotPath, gotAuth, gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.PollLocations(context.Background()))
	assert.Equal(t, "/api/cron/location-poll", gotPath)
	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestCronRoutePaths(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
	})

	require.NoError(t, client.PollConsent(context.Background()))
	require.NoError(t, client.RefreshAuth(context.Background()))
	assert.Equal(t, []string{"/api/telenity/consent/poll", "/api/telenity/auth/refresh"}, paths)
}

func TestSubmitRoute(t *testing.T) {
	var got processedRoute
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/routes", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})

	result := &route.Result{
		OriginalPoints:  4,
		ProcessedPoints: 2,
		EncodedPolyline: "_p~iF~ps|U",
		TotalDistanceKm: 1.5,
	}
	require.NoError(t, client.SubmitRoute(context.Background(), "veh-42", result))

	assert.Equal(t, "veh-42", got.VehicleID)
	require.NotNil(t, got.Result)
	assert.Equal(t, 2, got.Result.ProcessedPoints)
}

func TestBackendErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.PollLocations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
