package geo

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Config{IPInfoURL: srv.URL, NominatimURL: srv.URL, UserAgent: "test-agent"}, slog.Default())
	return c, &calls
}

func TestReverse(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "18", r.URL.Query().Get("zoom"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		w.Write([]byte(`{
			"display_name": "Bay Street, Nassau, New Providence, The Bahamas",
			"address": {"road": "Bay Street", "city": "Nassau", "state": "New Providence", "country": "The Bahamas"}
		}`))
	})

	addr := c.Reverse(context.Background(), 25.0781, -77.3431)
	require.True(t, addr.Found)
	assert.Equal(t, "Bay Street, Nassau, The Bahamas", addr.Formatted)
	assert.Equal(t, "New Providence", addr.Island)
	assert.Equal(t, "Nassau", addr.Settlement)
	assert.Equal(t, "Bay Street", addr.Street)

	// Second lookup is served from cache.
	c.Reverse(context.Background(), 25.0781, -77.3431)
	assert.Equal(t, int32(1), calls.Load())
}

func TestReverseFallbacks(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		assert.Equal(t, AddressUnavailable, c.Reverse(context.Background(), 1, 1).Formatted)
	})

	t.Run("bad body", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"display_name": `))
		})
		assert.Equal(t, AddressLookupFailed, c.Reverse(context.Background(), 1, 1).Formatted)
	})

	t.Run("not found", func(t *testing.T) {
		c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": "Unable to geocode"}`))
		})
		assert.Equal(t, AddressNotFound, c.Reverse(context.Background(), 1, 1).Formatted)
		c.Reverse(context.Background(), 1, 1)
		assert.Equal(t, int32(2), calls.Load(), "misses are not cached")
	})

	t.Run("transport", func(t *testing.T) {
		c := NewClient(Config{NominatimURL: "http://127.0.0.1:1"}, slog.Default())
		assert.Equal(t, AddressLookupFailed, c.Reverse(context.Background(), 1, 1).Formatted)
	})
}

func TestReverseUsesTownAndRegion(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"display_name": "Somewhere", "address": {"pedestrian": "Front Walk", "town": "Dunmore Town", "region": "Eleuthera", "country": "The Bahamas"}}`))
	})
	addr := c.Reverse(context.Background(), 25.5, -76.6)
	assert.Equal(t, "Eleuthera", addr.Island)
	assert.Equal(t, "Dunmore Town", addr.Settlement)
	assert.Equal(t, "Front Walk", addr.Street)
}

func TestDetect(t *testing.T) {
	var path atomic.Value
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		w.Write([]byte(`{"loc": "26.5333,-78.7000", "city": "Freeport", "region": "Freeport"}`))
	})

	d := c.Detect(context.Background(), "8.8.8.8")
	assert.Equal(t, "/8.8.8.8/json", path.Load())
	assert.True(t, d.Detected)
	assert.InDelta(t, 26.5333, d.Latitude, 1e-9)
	assert.InDelta(t, -78.7, d.Longitude, 1e-9)

	c.Detect(context.Background(), "192.168.1.10")
	assert.Equal(t, "/json", path.Load())
}

func TestDetectFallsBackToNassau(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"loc": "garbage"}`))
	})
	d := c.Detect(context.Background(), "8.8.8.8")
	assert.False(t, d.Detected)
	assert.Equal(t, 25.0343, d.Latitude)
	assert.Equal(t, -77.3963, d.Longitude)
}

func TestNormalizeLongitude(t *testing.T) {
	assert.Equal(t, -77.35, NormalizeLongitude(77.35))
	assert.Equal(t, -70.0, NormalizeLongitude(70))
	assert.Equal(t, -77.35, NormalizeLongitude(-77.35))
	assert.Equal(t, 81.0, NormalizeLongitude(81))
}

func TestLocationChecks(t *testing.T) {
	assert.True(t, IsDefault(25.0343, -77.3963))
	assert.False(t, IsDefault(25.0443, -77.3963))
	assert.True(t, InBahamas(24.7, -77.8))
	assert.False(t, InBahamas(40.7, -74.0))

	assert.Len(t, Warnings(25.0343, -77.3963), 1)
	assert.Len(t, Warnings(40.7, -74.0), 1)
	assert.Empty(t, Warnings(26.5, -78.7))
}

func TestMapLinks(t *testing.T) {
	l := MapLinks(25.5, -76.75)
	assert.Equal(t, "https://www.google.com/maps?q=25.500000,-76.750000", l.Google)
	assert.Equal(t, "http://maps.apple.com/?ll=25.500000,-76.750000", l.Apple)
	assert.Contains(t, l.OpenStreetMap, "mlat=25.500000&mlon=-76.750000")
}
