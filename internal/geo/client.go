// Package geo wraps the IP geolocation and reverse geocoding services used to
// prefill and confirm addresses.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Address lookup fallbacks shown in place of a formatted address. A non-200
// reply is AddressUnavailable; transport and decode errors are
// AddressLookupFailed.
const (
	AddressLookupFailed = "Address lookup failed"
	AddressUnavailable  = "Unable to fetch address"
	AddressNotFound     = "Address not found"
)

// Config holds geo service configuration.
type Config struct {
	IPInfoURL    string
	NominatimURL string
	UserAgent    string
	CacheTTL     time.Duration
}

// Address is the reverse geocoding result for a coordinate.
type Address struct {
	Formatted  string `json:"formatted"`
	Display    string `json:"display_name"`
	Island     string `json:"island"`
	Settlement string `json:"settlement"`
	Street     string `json:"street"`
	Country    string `json:"country"`
	Found      bool   `json:"found"`
}

// Detection is the best-effort location of a visitor.
type Detection struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Detected  bool    `json:"detected"`
}

// Client talks to ipinfo.io and Nominatim. Reverse lookups are cached.
type Client struct {
	config       Config
	client       *http.Client
	ipinfoURL    string
	nominatimURL string
	cache        *cache.Cache
	logger       *slog.Logger
}

// NewClient creates a geo client with the given configuration.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.IPInfoURL == "" {
		cfg.IPInfoURL = "https://ipinfo.io"
	}
	if cfg.NominatimURL == "" {
		cfg.NominatimURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "NACPCensus/1.0"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &Client{
		config:       cfg,
		client:       &http.Client{Timeout: 10 * time.Second},
		ipinfoURL:    strings.TrimRight(cfg.IPInfoURL, "/"),
		nominatimURL: strings.TrimRight(cfg.NominatimURL, "/"),
		cache:        cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:       logger,
	}
}

type ipinfoResponse struct {
	Loc    string `json:"loc"`
	City   string `json:"city"`
	Region string `json:"region"`
}

// Detect looks up the visitor's approximate location from their IP. Private
// and loopback addresses are resolved as the server's own address. Any
// failure returns the Nassau fallback with Detected false.
func (c *Client) Detect(ctx context.Context, ip string) Detection {
	fallback := Detection{Latitude: Nassau.Lat(), Longitude: Nassau.Lon()}

	endpoint := c.ipinfoURL + "/json"
	if addr := net.ParseIP(ip); addr != nil && !addr.IsLoopback() && !addr.IsPrivate() && !addr.IsUnspecified() {
		endpoint = c.ipinfoURL + "/" + addr.String() + "/json"
	}

	var resp ipinfoResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		c.logger.Warn("ip geolocation", "error", err)
		return fallback
	}

	lat, lon, err := parseLoc(resp.Loc)
	if err != nil {
		c.logger.Warn("ip geolocation", "loc", resp.Loc, "error", err)
		return fallback
	}
	return Detection{Latitude: lat, Longitude: lon, City: resp.City, Region: resp.Region, Detected: true}
}

func parseLoc(loc string) (float64, float64, error) {
	latStr, lonStr, ok := strings.Cut(loc, ",")
	if !ok {
		return 0, 0, fmt.Errorf("malformed loc %q", loc)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse longitude: %w", err)
	}
	return lat, lon, nil
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		Road       string `json:"road"`
		Pedestrian string `json:"pedestrian"`
		Suburb     string `json:"suburb"`
		City       string `json:"city"`
		Town       string `json:"town"`
		Village    string `json:"village"`
		State      string `json:"state"`
		Region     string `json:"region"`
		Country    string `json:"country"`
	} `json:"address"`
}

// Reverse returns the address at lat/lon. It never fails: on error the
// Formatted field holds one of the fallback strings.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) Address {
	key := fmt.Sprintf("%.6f,%.6f", lat, lon)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(Address)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	var resp nominatimResponse
	err := c.getJSON(ctx, c.nominatimURL+"/reverse?"+q.Encode(), &resp)
	if err != nil {
		c.logger.Warn("reverse geocode", "lat", lat, "lon", lon, "error", err)
		var se statusError
		if errors.As(err, &se) {
			return Address{Formatted: AddressUnavailable}
		}
		return Address{Formatted: AddressLookupFailed}
	}

	addr := toAddress(resp)
	if addr.Found {
		c.cache.SetDefault(key, addr)
	}
	return addr
}

func toAddress(resp nominatimResponse) Address {
	if resp.Error != "" || (resp.DisplayName == "" && resp.Address.Country == "") {
		return Address{Formatted: AddressNotFound}
	}
	a := resp.Address
	addr := Address{
		Display:    resp.DisplayName,
		Island:     firstNonEmpty(a.State, a.Region),
		Settlement: firstNonEmpty(a.City, a.Town, a.Village),
		Street:     firstNonEmpty(a.Road, a.Pedestrian),
		Country:    a.Country,
		Found:      true,
	}

	var parts []string
	for _, p := range []string{addr.Street, a.Suburb, addr.Settlement, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	addr.Formatted = strings.Join(parts, ", ")
	if addr.Formatted == "" {
		addr.Formatted = resp.DisplayName
	}
	return addr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type statusError int

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", int(e))
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
