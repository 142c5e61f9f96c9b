package predict

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroadvisor/internal/models"
	"agroadvisor/internal/repositories"
	"agroadvisor/internal/services/weather"
	"agroadvisor/pkg/observe"
)

type stubGeocoder struct {
	noResults bool
}

func (s *stubGeocoder) Name() string { return "stub" }

func (s *stubGeocoder) Geocode(ctx context.Context, query string) (*models.Location, error) {
	if s.noResults {
		return nil, repositories.ErrNoResults
	}
	return &models.Location{Latitude: 14.46, Longitude: 75.92, Name: "Davanagere"}, nil
}

type stubWeather struct {
	failHistorical bool
	historical     []models.DailyWeatherRecord
	forecast       []models.DailyWeatherRecord
}

func (s *stubWeather) FetchHistorical(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.DailyWeatherRecord, error) {
	if s.failHistorical {
		return nil, repositories.ErrNoWeatherData
	}
	return s.historical, nil
}

func (s *stubWeather) FetchForecast(ctx context.Context, lat, lon float64) ([]models.DailyWeatherRecord, error) {
	return s.forecast, nil
}

// wheatFixture writes a 30-day price table and the matching weather series.
func wheatFixture(t *testing.T) (dataDir string, provider *stubWeather) {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("District Name,Market Name,State Name,Modal Price (Rs./Quintal),Arrivals (Tonnes),Reported Date\n")

	var historical []models.DailyWeatherRecord
	for i := 0; i < 30; i++ {
		d := time.Date(2025, 6, 1+i, 0, 0, 0, 0, time.UTC)
		fmt.Fprintf(&sb, "Davanagere,Davanagere,Karnataka,%d,%d,%s\n",
			2000+10*(i%7), 5+i%4, d.Format("02/01/2006"))

		historical = append(historical, models.DailyWeatherRecord{
			Date:    d,
			TempMax: 30 + float64(i%5),
			TempMin: 21 + float64(i%5),
		})
	}

	var forecast []models.DailyWeatherRecord
	for i := 0; i < 7; i++ {
		forecast = append(forecast, models.DailyWeatherRecord{
			Date:    time.Date(2025, 7, 1+i, 0, 0, 0, 0, time.UTC),
			TempMax: 33,
			TempMin: 24,
		})
	}

	dataDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "wheat.csv"), []byte(sb.String()), 0o644))

	return dataDir, &stubWeather{historical: historical, forecast: forecast}
}

func newTestService(t *testing.T, dataDir string, geocoder repositories.Geocoder, provider weather.Provider) *Service {
	t.Helper()

	l := observe.NewZapLogger("test-app", "test")

	s := NewService(
		repositories.NewPriceStore(dataDir, l),
		repositories.NewGeoCache(filepath.Join(t.TempDir(), "geocache.json"), geocoder, l),
		weather.NewService(provider, l),
		l,
	)
	s.now = func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) }

	return s
}

func TestRunPricePrediction_HappyPath(t *testing.T) {
	dataDir, provider := wheatFixture(t)
	s := newTestService(t, dataDir, &stubGeocoder{}, provider)

	forecast, err := s.RunPricePrediction(context.Background(), "wheat", "Davanagere")
	require.NoError(t, err)

	assert.Equal(t, "Davanagere", forecast.Market)
	assert.Equal(t, "2025-09-29", forecast.PredictionDate)
	assert.Equal(t, 24, forecast.TrainRows)
	assert.LessOrEqual(t, forecast.ModelR2, 1.0)

	// Prices in the table span 2000..2060; the forecast stays in that band.
	assert.Greater(t, forecast.PredictedPrice, 1900.0)
	assert.Less(t, forecast.PredictedPrice, 2200.0)
}

func TestRunPricePrediction_UnknownCrop(t *testing.T) {
	dataDir, provider := wheatFixture(t)
	s := newTestService(t, dataDir, &stubGeocoder{}, provider)

	_, err := s.RunPricePrediction(context.Background(), "saffron", "Davanagere")
	assert.ErrorIs(t, err, ErrNoPrediction)
}

func TestRunPricePrediction_UnknownDistrict(t *testing.T) {
	dataDir, provider := wheatFixture(t)
	s := newTestService(t, dataDir, &stubGeocoder{}, provider)

	_, err := s.RunPricePrediction(context.Background(), "wheat", "Atlantis")
	assert.ErrorIs(t, err, ErrNoPrediction)
}

func TestRunPricePrediction_GeocodeFailure(t *testing.T) {
	dataDir, provider := wheatFixture(t)
	s := newTestService(t, dataDir, &stubGeocoder{noResults: true}, provider)

	_, err := s.RunPricePrediction(context.Background(), "wheat", "Davanagere")
	assert.ErrorIs(t, err, ErrNoPrediction)
}

func TestRunPricePrediction_WeatherFailure(t *testing.T) {
	dataDir, provider := wheatFixture(t)
	provider.failHistorical = true
	s := newTestService(t, dataDir, &stubGeocoder{}, provider)

	_, err := s.RunPricePrediction(context.Background(), "wheat", "Davanagere")
	assert.ErrorIs(t, err, ErrNoPrediction)
}

func TestRunPricePrediction_TooFewRows(t *testing.T) {
	dataDir := t.TempDir()

	// Ten rows is below the training minimum.
	var sb strings.Builder
	sb.WriteString("District Name,Market Name,State Name,Modal Price (Rs./Quintal),Arrivals (Tonnes),Reported Date\n")

	var historical []models.DailyWeatherRecord
	for i := 0; i < 10; i++ {
		d := time.Date(2025, 6, 1+i, 0, 0, 0, 0, time.UTC)
		fmt.Fprintf(&sb, "Davanagere,Davanagere,Karnataka,2000,5,%s\n", d.Format("02/01/2006"))
		historical = append(historical, models.DailyWeatherRecord{Date: d, TempMax: 30, TempMin: 21})
	}
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "wheat.csv"), []byte(sb.String()), 0o644))

	provider := &stubWeather{
		historical: historical,
		forecast:   []models.DailyWeatherRecord{{Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)}},
	}
	s := newTestService(t, dataDir, &stubGeocoder{}, provider)

	_, err := s.RunPricePrediction(context.Background(), "wheat", "Davanagere")
	assert.ErrorIs(t, err, ErrNoPrediction)
}
