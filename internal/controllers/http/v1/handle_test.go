package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroadvisor/internal/models"
	"agroadvisor/internal/repositories"
	"agroadvisor/internal/services/predict"
	"agroadvisor/internal/services/recommend"
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

type stubWeatherProvider struct{}

func (stubWeatherProvider) FetchHistorical(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.DailyWeatherRecord, error) {
	h := 70.0
	return []models.DailyWeatherRecord{
		{Date: time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC), TempMax: 30, TempMin: 20, Precipitation: 2, Humidity: &h},
	}, nil
}

func (stubWeatherProvider) FetchForecast(ctx context.Context, lat, lon float64) ([]models.DailyWeatherRecord, error) {
	return []models.DailyWeatherRecord{{Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)}}, nil
}

// newTestApp wires a fiber app with an empty data directory, a stub geocoder
// and, unless degraded, no recommendation engine.
func newTestApp(t *testing.T, engine *recommend.Engine, geocoder repositories.Geocoder) *fiber.App {
	t.Helper()

	l := observe.NewZapLogger("test-app", "test")
	app := fiber.New()

	prices := repositories.NewPriceStore(t.TempDir(), l)
	geo := repositories.NewGeoCache(filepath.Join(t.TempDir(), "geocache.json"), geocoder, l)
	weatherService := weather.NewService(stubWeatherProvider{}, l)
	predictor := predict.NewService(prices, geo, weatherService, l)

	NewRouter(app, engine, predictor, weatherService, geo, prices, l)

	return app
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var er ErrorResponse
	require.NoError(t, json.Unmarshal(body, &er))

	return er
}

func TestHandleRecommend_DegradedModeReturns503(t *testing.T) {
	app := newTestApp(t, nil, &stubGeocoder{})

	req := httptest.NewRequest("POST", "/api/v1/recommend",
		strings.NewReader(`{"district": "Davanagere", "season": "Kharif"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, decodeError(t, resp).Error, "not loaded")
}

func TestHandlePredict_MissingParams(t *testing.T) {
	app := newTestApp(t, nil, &stubGeocoder{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/predict?district=Davanagere", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/predict?crop=wheat", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandlePredict_NoDataIs404(t *testing.T) {
	app := newTestApp(t, nil, &stubGeocoder{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/predict?crop=wheat&district=Davanagere", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleClimate(t *testing.T) {
	app := newTestApp(t, nil, &stubGeocoder{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/climate?district=Davanagere&state=Karnataka", nil), 10000)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var cr ClimateResponse
	require.NoError(t, json.Unmarshal(body, &cr))

	assert.Equal(t, 14.46, cr.Location.Latitude)
	require.Len(t, cr.Seasons, 4)
	assert.Equal(t, models.SeasonRabi, cr.Seasons[0].Season)

	// The single November observation lands in the Rabi bucket.
	assert.Equal(t, 25.0, cr.Seasons[0].AvgTemp)
	assert.Equal(t, 70.0, cr.Seasons[0].AvgHumidity)
}

func TestHandleClimate_MissingDistrict(t *testing.T) {
	app := newTestApp(t, nil, &stubGeocoder{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/climate", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleClimate_GeocodeFailureIs404(t *testing.T) {
	app := newTestApp(t, nil, &stubGeocoder{noResults: true})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/climate?district=Atlantis", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSwaggerDocJSONServesCommittedArtifact(t *testing.T) {
	app := newTestApp(t, nil, &stubGeocoder{})

	// The route reads docs/swagger.json relative to the working directory,
	// which in production is the repository root.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir("../../../.."))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	resp, err := app.Test(httptest.NewRequest("GET", "/swagger/doc.json", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var doc struct {
		Swagger string                     `json:"swagger"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))

	assert.Equal(t, "2.0", doc.Swagger)
	for _, path := range []string{"/api/v1/recommend", "/api/v1/predict", "/api/v1/predict/options", "/api/v1/climate"} {
		assert.Contains(t, doc.Paths, path)
	}
}

func TestValidateRecommendRequest(t *testing.T) {
	valid := RecommendRequest{
		Nitrogen: 90, Phosphorous: 40, Potassium: 40,
		PH: 6.5, Rainfall: 1000, Temperature: 25, Humidity: 60,
		District: "Davanagere", Season: "Kharif",
	}

	_, ok := validateRecommendRequest(valid)
	assert.True(t, ok)

	cases := []struct {
		name   string
		mutate func(*RecommendRequest)
	}{
		{"missing district", func(r *RecommendRequest) { r.District = "" }},
		{"missing season", func(r *RecommendRequest) { r.Season = "" }},
		{"ph too high", func(r *RecommendRequest) { r.PH = 15 }},
		{"negative nitrogen", func(r *RecommendRequest) { r.Nitrogen = -1 }},
		{"negative rainfall", func(r *RecommendRequest) { r.Rainfall = -5 }},
		{"humidity over 100", func(r *RecommendRequest) { r.Humidity = 120 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)

			msg, ok := validateRecommendRequest(req)
			assert.False(t, ok)
			assert.NotEmpty(t, msg)
		})
	}
}
