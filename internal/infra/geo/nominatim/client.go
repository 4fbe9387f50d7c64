// Package nominatim reverse geocodes coordinates through the public
// Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/SatvikDB/aegis/internal/domain/geo"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	userAgent      = "aegis_geo_intel_v2"
	maxNameParts   = 3
)

// addressKeys is the locality preference order for the display name.
var addressKeys = []string{"city", "town", "village", "county", "state", "country"}

// Client implements geo.Geocoder. Lookups degrade to a formatted
// coordinate string on any failure, so callers never handle errors.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type reverseResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// ReverseGeocode resolves coordinates to a short place name, joining up
// to three locality parts. Falls back to "48.8566° N, 2.3522° E" style
// output when the lookup fails.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	name, err := c.lookup(ctx, lat, lon)
	if err != nil {
		log.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("reverse geocoding failed")
		return geo.FormatCoordinates(lat, lon)
	}
	if name == "" {
		return geo.FormatCoordinates(lat, lon)
	}
	return name
}

func (c *Client) lookup(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	q.Set("accept-language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	var parts []string
	for _, key := range addressKeys {
		v, ok := body.Address[key]
		if !ok || v == "" || contains(parts, v) {
			continue
		}
		parts = append(parts, v)
		if len(parts) == maxNameParts {
			break
		}
	}
	if len(parts) == 0 {
		return body.DisplayName, nil
	}
	return strings.Join(parts, ", "), nil
}

func contains(parts []string, v string) bool {
	for _, p := range parts {
		if p == v {
			return true
		}
	}
	return false
}
