package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"agroadvisor/internal/models"
	"agroadvisor/pkg/observe"
)

// MapsCoGeocoder queries the geocode.maps.co search API with a free-text
// query and takes the first result.
type MapsCoGeocoder struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	l          *observe.Logger
}

func NewMapsCoGeocoder(baseURL, apiKey string, httpClient HTTPClient, l *observe.Logger) *MapsCoGeocoder {
	return &MapsCoGeocoder{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		l:          l,
	}
}

func (g *MapsCoGeocoder) Name() string {
	return "maps-co"
}

type mapsCoResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *MapsCoGeocoder) Geocode(ctx context.Context, query string) (*models.Location, error) {
	params := url.Values{}
	params.Add("q", query)
	if g.apiKey != "" {
		params.Add("api_key", g.apiKey)
	}

	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())

	g.l.Info("making geocoding API request", map[string]any{
		"provider": g.Name(),
		"query":    query,
	})

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

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

	var results []mapsCoResult
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
