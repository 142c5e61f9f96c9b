package models

// Location is a geocoded place.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Name      string  `json:"name,omitempty"`
}

// GeoCacheEntry is the persisted form of a resolved market location. The
// cache file is a flat JSON mapping from normalized key to entry.
type GeoCacheEntry struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name,omitempty"`
}
