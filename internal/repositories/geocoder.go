package repositories

import (
	"context"
	"errors"
	"net/http"

	"agroadvisor/config"
	"agroadvisor/internal/models"
	"agroadvisor/pkg/observe"
)

// ErrNoResults signals that the upstream geocoding service returned nothing
// for the query. Callers treat this as "skip this location", not a failure.
var ErrNoResults = errors.New("no geocoding results")

// HTTPClient is the outbound transport used by all API repositories.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Geocoder resolves a free-text query to a coordinate.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, query string) (*models.Location, error)
}

func InitGeocoder(cfg *config.Config, httpClient HTTPClient, l *observe.Logger) Geocoder {
	switch cfg.Geocoder.Provider {
	case "nominatim":
		return NewNominatimGeocoder(cfg.Geocoder.NominatimURL, httpClient, l)
	default:
		return NewMapsCoGeocoder(cfg.Geocoder.MapsCoURL, cfg.Geocoder.APIKey, httpClient, l)
	}
}
