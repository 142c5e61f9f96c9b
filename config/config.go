package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppName    string `envconfig:"APP_NAME" yaml:"app_name"`
	AppVersion string `envconfig:"APP_VERSION" yaml:"app_version"`
	AppEnv     string `envconfig:"APP_ENV" yaml:"app_env"`
	Port       string `envconfig:"PORT" yaml:"port"`

	DataDir        string `envconfig:"DATA_DIR" yaml:"data_dir"`
	GeoCacheFile   string `envconfig:"GEO_CACHE_FILE" yaml:"geo_cache_file"`
	CropModelFile  string `envconfig:"CROP_MODEL_FILE" yaml:"crop_model_file"`
	YieldModelFile string `envconfig:"YIELD_MODEL_FILE" yaml:"yield_model_file"`
	YieldCSVFile   string `envconfig:"YIELD_CSV_FILE" yaml:"yield_csv_file"`

	Geocoder GeocoderConfig `yaml:"geocoder"`
	Weather  WeatherConfig  `yaml:"weather"`
	HTTP     HTTPConfig     `yaml:"http"`
	Sentry   SentryConfig   `yaml:"sentry"`
}

type GeocoderConfig struct {
	// Provider selects the geocoding backend: "maps-co" or "nominatim".
	Provider     string `envconfig:"GEOCODER_PROVIDER" yaml:"provider"`
	MapsCoURL    string `envconfig:"GEOCODER_MAPSCO_URL" yaml:"maps_co_url"`
	NominatimURL string `envconfig:"GEOCODER_NOMINATIM_URL" yaml:"nominatim_url"`
	APIKey       string `envconfig:"GEOCODER_API_KEY" yaml:"api_key,omitempty"`
}

type WeatherConfig struct {
	ArchiveURL  string `envconfig:"WEATHER_ARCHIVE_URL" yaml:"archive_url"`
	ForecastURL string `envconfig:"WEATHER_FORECAST_URL" yaml:"forecast_url"`
}

type HTTPConfig struct {
	TimeoutSeconds int `envconfig:"HTTP_TIMEOUT_SECONDS" yaml:"timeout_seconds"`
	MaxRetries     int `envconfig:"HTTP_MAX_RETRIES" yaml:"max_retries"`
}

type SentryConfig struct {
	DSN string `envconfig:"SENTRY_DSN" yaml:"dsn,omitempty"`
}

// NewConfig reads the YAML config file at path (a missing file is fine),
// fills in defaults for anything the file left empty, then overrides with
// environment variables.
func NewConfig(path string) (*Config, error) {
	var cnf Config

	if yamlData, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(yamlData, &cnf); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	cnf.fillDefaults()

	if err := envconfig.Process("", &cnf); err != nil {
		return nil, fmt.Errorf("error environment variable parsing: %w", err)
	}

	return &cnf, nil
}

func (c *Config) fillDefaults() {
	setIfEmpty(&c.AppName, "agroadvisor")
	setIfEmpty(&c.AppVersion, "1.0.0")
	setIfEmpty(&c.AppEnv, "development")
	setIfEmpty(&c.Port, "8080")

	setIfEmpty(&c.DataDir, "data")
	setIfEmpty(&c.GeoCacheFile, "instance/geo_cache.json")
	setIfEmpty(&c.CropModelFile, "models/crop_classifier.json")
	setIfEmpty(&c.YieldModelFile, "models/yield_model.json")
	setIfEmpty(&c.YieldCSVFile, "data/crop-wise-area-production-yield.csv")

	setIfEmpty(&c.Geocoder.Provider, "maps-co")
	setIfEmpty(&c.Geocoder.MapsCoURL, "https://geocode.maps.co/search")
	setIfEmpty(&c.Geocoder.NominatimURL, "https://nominatim.openstreetmap.org/search")

	setIfEmpty(&c.Weather.ArchiveURL, "https://archive-api.open-meteo.com/v1/archive")
	setIfEmpty(&c.Weather.ForecastURL, "https://api.open-meteo.com/v1/forecast")

	if c.HTTP.TimeoutSeconds == 0 {
		c.HTTP.TimeoutSeconds = 10
	}
	if c.HTTP.MaxRetries == 0 {
		c.HTTP.MaxRetries = 4
	}
}

func setIfEmpty(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
