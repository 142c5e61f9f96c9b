package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"agroadvisor/internal/models"
	"agroadvisor/pkg/observe"
)

// Required by the Nominatim ToS.
const nominatimUserAgent = "agroadvisor/1.0"

// NominatimGeocoder is an alternate geocoding provider. Nominatim allows at
// most one request per second, so calls are rate limited.
type NominatimGeocoder struct {
	baseURL    string
	httpClient HTTPClient
	l          *observe.Logger

	mu       sync.Mutex
	lastCall time.Time
}

func NewNominatimGeocoder(baseURL string, httpClient HTTPClient, l *observe.Logger) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL:    baseURL,
		httpClient: httpClient,
		l:          l,
	}
}

func (g *NominatimGeocoder) Name() string {
	return "nominatim"
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (*models.Location, error) {
	params := url.Values{}
	params.Add("format", "json")
	params.Add("limit", "1")
	params.Add("q", query)

	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())

	g.mu.Lock()
	if !g.lastCall.IsZero() {
		if elapsed := time.Since(g.lastCall); elapsed < time.Second {
			time.Sleep(time.Second - elapsed)
		}
	}
	g.lastCall = time.Now()
	g.mu.Unlock()

	g.l.Info("making geocoding API request", map[string]any{
		"provider": g.Name(),
		"query":    query,
	})

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error (status %d): %s", resp.StatusCode, resp.Status)
	}

	var results []nominatimResult
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNoResults
	}

	chosen := results[0]

	lat, err := strconv.ParseFloat(chosen.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse latitude %q: %w", chosen.Lat, err)
	}
	lon, err := strconv.ParseFloat(chosen.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse longitude %q: %w", chosen.Lon, err)
	}

	return &models.Location{
		Latitude:  lat,
		Longitude: lon,
		Name:      chosen.DisplayName,
	}, nil
}
