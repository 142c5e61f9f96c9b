package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"agroadvisor/internal/models"
	"agroadvisor/pkg/observe"
)

// GeoCache is a read-through file cache in front of a Geocoder. The cache
// file is a flat JSON mapping from normalized "market|district|state" key to
// coordinates, read and rewritten in full on every miss. A key present in
// the cache is never re-queried. Concurrent writers may race; entries are
// idempotent for a given key, so last-writer-wins is acceptable.
type GeoCache struct {
	path     string
	geocoder Geocoder
	l        *observe.Logger
	mu       sync.Mutex
}

func NewGeoCache(path string, geocoder Geocoder, l *observe.Logger) *GeoCache {
	return &GeoCache{
		path:     path,
		geocoder: geocoder,
		l:        l,
	}
}

// Resolve returns the coordinates for a market. On a miss it queries the
// geocoding provider and persists the first result. ErrNoResults means the
// upstream returned nothing or failed; callers skip the location.
func (c *GeoCache) Resolve(ctx context.Context, market, district, state string) (*models.Location, error) {
	key := cacheKey(market, district, state)

	c.mu.Lock()
	defer c.mu.Unlock()

	cache := c.load()

	if entry, ok := cache[key]; ok {
		c.l.Info("geocode cache hit", map[string]any{"key": key})
		return &models.Location{Latitude: entry.Lat, Longitude: entry.Lon, Name: entry.Name}, nil
	}

	c.l.Info("geocode cache miss, querying API", map[string]any{"key": key})

	query := fmt.Sprintf("%s, %s, %s", market, district, state)

	loc, err := c.geocoder.Geocode(ctx, query)
	if err != nil {
		if !errors.Is(err, ErrNoResults) {
			c.l.Warning("geocoding query failed", map[string]any{"query": query, "err": err.Error()})
		}
		return nil, ErrNoResults
	}

	cache[key] = models.GeoCacheEntry{Lat: loc.Latitude, Lon: loc.Longitude, Name: loc.Name}

	if err := c.save(cache); err != nil {
		// A failed write only costs a re-query next time.
		c.l.Warning("failed to save geocode cache", map[string]any{"path": c.path, "err": err.Error()})
	}

	c.l.Info("geocode success", map[string]any{
		"query": query,
		"lat":   loc.Latitude,
		"lon":   loc.Longitude,
	})

	return loc, nil
}

func cacheKey(market, district, state string) string {
	return strings.ToLower(fmt.Sprintf("%s|%s|%s",
		strings.TrimSpace(market), strings.TrimSpace(district), strings.TrimSpace(state)))
}

// load reads the cache file fresh on every call. A missing, unreadable or
// corrupt file degrades to an empty mapping (cold-cache behavior).
func (c *GeoCache) load() map[string]models.GeoCacheEntry {
	cache := make(map[string]models.GeoCacheEntry)

	data, err := os.ReadFile(c.path)
	if err != nil {
		return cache
	}

	if err := json.Unmarshal(data, &cache); err != nil {
		c.l.Warning("geocode cache file corrupt, starting cold", map[string]any{
			"path": c.path,
			"err":  err.Error(),
		})
		return make(map[string]models.GeoCacheEntry)
	}

	return cache
}

func (c *GeoCache) save(cache map[string]models.GeoCacheEntry) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0o644)
}
