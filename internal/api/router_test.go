package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routewise/routewise/internal/api"
	"github.com/routewise/routewise/internal/api/models"
	"github.com/routewise/routewise/internal/geo"
	"github.com/routewise/routewise/internal/geocode"
	"github.com/routewise/routewise/internal/route"
	"github.com/routewise/routewise/internal/snap"
	"github.com/routewise/routewise/internal/upstream"
)

// passthroughSnapper snaps nothing, keeping every point in place.
type passthroughSnapper struct{}

func (passthroughSnapper) Snap(_ context.Context, points []geo.Coordinate) []snap.Point {
	out := make([]snap.Point, len(points))
	for i, p := range points {
		out[i] = snap.Point{Coordinate: p}
	}
	return out
}

// staticGeocoder resolves every point to the same address.
type staticGeocoder struct{ address string }

func (g staticGeocoder) Reverse(_ context.Context, points []geo.Coordinate) []string {
	out := make([]string, len(points))
	for i := range out {
		out[i] = g.address
	}
	return out
}

func (staticGeocoder) CacheStats() geocode.Stats { return geocode.Stats{} }

type stubPoller struct{ locationCalls, consentCalls int }

func (p *stubPoller) PollLocations(context.Context) error { p.locationCalls++; return nil }
func (p *stubPoller) PollConsent(context.Context) error   { p.consentCalls++; return nil }

func newTestRouter(poller *stubPoller) http.Handler {
	logger := zerolog.New(io.Discard)
	geocoder := staticGeocoder{address: "Connaught Place, New Delhi"}
	return api.NewRouter(api.RouterConfig{
		Version:    "test",
		BuildTime:  "2026-01-01T00:00:00Z",
		Logger:     logger,
		CronSecret: "hunter2",
		Processor: route.NewProcessor(route.ProcessorConfig{
			Snapper:  passthroughSnapper{},
			Geocoder: geocoder,
			Logger:   logger,
		}),
		Geocoder:  geocoder,
		Snapper:   passthroughSnapper{},
		Cache:     geocoder,
		Poller:    poller,
		Upstreams: upstream.NewRegistry(),
	})
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProcessRouteEndpoint(t *testing.T) {
	router := newTestRouter(&stubPoller{})

	geocodeOn := true
	w := postJSON(t, router, "/v1/routes:process", models.ProcessRouteRequest{
		Coordinates: []route.Coordinate{
			{Lat: 28.6139, Lng: 77.2090},
			{Lat: 28.6500, Lng: 77.2500},
			{Lat: 28.7000, Lng: 77.3000},
		},
		ReverseGeocode: &geocodeOn,
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var result route.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 3, result.OriginalPoints)
	assert.LessOrEqual(t, result.ProcessedPoints, 3)
	assert.NotEmpty(t, result.EncodedPolyline)
	assert.Greater(t, result.TotalDistanceKm, 0.0)
	for _, p := range result.Route {
		assert.Equal(t, "Connaught Place, New Delhi", p.Address)
	}
}

func TestProcessRouteRejectsEmptyBody(t *testing.T) {
	router := newTestRouter(&stubPoller{})

	w := postJSON(t, router, "/v1/routes:process", models.ProcessRouteRequest{})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, "/v1/routes:process", problem.Instance)
}

func TestProcessRouteRejectsMalformedCoordinate(t *testing.T) {
	router := newTestRouter(&stubPoller{})

	w := postJSON(t, router, "/v1/routes:process", models.ProcessRouteRequest{
		Coordinates: []route.Coordinate{{Lat: 123.4, Lng: 77.2}},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeocodeEndpoint(t *testing.T) {
	router := newTestRouter(&stubPoller{})

	w := postJSON(t, router, "/v1/geocode", models.GeocodeRequest{
		Coordinates: []models.GeocodePoint{{Lat: 28.6139, Lng: 77.2090}},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.GeocodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Connaught Place, New Delhi", resp.Results[0].Address)
}

func TestSnapEndpoint(t *testing.T) {
	router := newTestRouter(&stubPoller{})

	w := postJSON(t, router, "/v1/snap", models.SnapRequest{
		Coordinates: []models.GeocodePoint{
			{Lat: 28.6139, Lng: 77.2090},
			{Lat: 28.6150, Lng: 77.2101},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SnapResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Points, 2)
	assert.False(t, resp.Points[0].Snapped)
}

func TestOpsEndpoints(t *testing.T) {
	router := newTestRouter(&stubPoller{})

	for _, path := range []string{"/v1/ops/health", "/v1/ops/ready", "/v1/ops/status"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestTriggerRequiresSecret(t *testing.T) {
	poller := &stubPoller{}
	router := newTestRouter(poller)

	req := httptest.NewRequest(http.MethodPost, "/v1/trigger/location-poll", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, poller.locationCalls)

	req = httptest.NewRequest(http.MethodPost, "/v1/trigger/location-poll", nil)
	req.Header.Set("Authorization", "Bearer hunter2")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, poller.locationCalls)

	var resp models.TriggerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Triggered)
	assert.Equal(t, "location-poll", resp.Job)
}
