package repositories

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroadvisor/pkg/observe"
)

func TestNominatimGeocoder_SetsRequiredParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, "Davanagere, Karnataka", q.Get("q"))
		assert.Equal(t, "agroadvisor/1.0", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat": "14.4644", "lon": "75.9218", "display_name": "Davanagere"}]`))
	}))
	defer server.Close()

	g := NewNominatimGeocoder(server.URL, http.DefaultClient, observe.NewZapLogger("test-app", "test"))

	loc, err := g.Geocode(context.Background(), "Davanagere, Karnataka")
	require.NoError(t, err)
	assert.InDelta(t, 14.4644, loc.Latitude, 1e-9)
}

func TestNominatimGeocoder_RateLimitsConsecutiveCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat": "1", "lon": "2", "display_name": "x"}]`))
	}))
	defer server.Close()

	g := NewNominatimGeocoder(server.URL, http.DefaultClient, observe.NewZapLogger("test-app", "test"))

	_, err := g.Geocode(context.Background(), "first")
	require.NoError(t, err)

	start := time.Now()
	_, err = g.Geocode(context.Background(), "second")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestNominatimGeocoder_EmptyResultIsErrNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	g := NewNominatimGeocoder(server.URL, http.DefaultClient, observe.NewZapLogger("test-app", "test"))

	_, err := g.Geocode(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrNoResults)
}
