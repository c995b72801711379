package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/nacp/internal/geo"
	"github.com/dukerupert/nacp/internal/middleware"
	"github.com/dukerupert/nacp/internal/validate"
)

// LocationHandler exposes geolocation lookups to the map widget.
type LocationHandler struct {
	geo    *geo.Client
	logger *slog.Logger
}

func NewLocationHandler(geoClient *geo.Client, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{geo: geoClient, logger: logger}
}

// Detect returns the caller's approximate location, or the Nassau fallback.
func (h *LocationHandler) Detect(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.geo.Detect(r.Context(), middleware.RealIP(r)))
}

type reverseResponse struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Address   geo.Address `json:"address"`
	Links     geo.Links   `json:"links"`
	Warnings  []string    `json:"warnings"`
}

// Reverse geocodes ?lat=&lon=. The longitude is normalized first so the
// widget and the form agree on the saved value.
func (h *LocationHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, lon, err := parseCoordinates(q.Get("lat"), q.Get("lon"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": validate.Messages(err)})
		return
	}

	warnings := geo.Warnings(lat, lon)
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, reverseResponse{
		Latitude:  lat,
		Longitude: lon,
		Address:   h.geo.Reverse(r.Context(), lat, lon),
		Links:     geo.MapLinks(lat, lon),
		Warnings:  warnings,
	})
}
