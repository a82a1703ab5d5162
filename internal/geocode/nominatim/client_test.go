package nominatim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/routewise/routewise/internal/geocode"
)

func TestClient_ReverseGeocode_Success(t *testing.T) {
	respBody, err := os.ReadFile("testdata/reverse_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("expected path /reverse, got %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("expected User-Agent %q, got %q", userAgent, r.Header.Get("User-Agent"))
		}
		q := r.URL.Query()
		if q.Get("format") != "jsonv2" {
			t.Errorf("expected format jsonv2, got %q", q.Get("format"))
		}
		if q.Get("lat") == "" || q.Get("lon") == "" {
			t.Error("expected lat and lon query parameters")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})

	addr, err := client.ReverseGeocode(context.Background(), 28.6139, 77.2090)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Connaught Place, New Delhi, Delhi, 110001, India"
	if addr != want {
		t.Errorf("expected %q, got %q", want, addr)
	}
}

func TestClient_ReverseGeocode_NoAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})

	_, err := client.ReverseGeocode(context.Background(), 0, 0)
	if !errors.Is(err, geocode.ErrNoAddress) {
		t.Fatalf("expected ErrNoAddress, got %v", err)
	}
}

func TestClient_ReverseGeocode_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})

	_, err := client.ReverseGeocode(context.Background(), 28.6139, 77.2090)
	if !errors.Is(err, geocode.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_ReverseGeocode_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})

	_, err := client.ReverseGeocode(context.Background(), 28.6139, 77.2090)
	if !errors.Is(err, geocode.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable for malformed body, got %v", err)
	}
}
