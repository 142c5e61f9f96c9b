package repositories

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroadvisor/pkg/observe"
)

const openMeteoDailyJSON = `{
	"daily": {
		"time": ["2025-06-01", "2025-06-02", "2025-06-03"],
		"weathercode": [3, 61, 0],
		"temperature_2m_max": [34.1, 31.8, 33.0],
		"temperature_2m_min": [24.2, 23.5, 23.9],
		"precipitation_sum": [0.0, 12.4, 0.2],
		"relative_humidity_2m_mean": [55.0, null, 61.5]
	}
}`

func TestOpenMeteo_FetchHistorical(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "era5", q.Get("models"))
		assert.Equal(t, "2025-06-01", q.Get("start_date"))
		assert.Equal(t, "2025-06-03", q.Get("end_date"))
		assert.Contains(t, q.Get("daily"), "relative_humidity_2m_mean")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(openMeteoDailyJSON))
	}))
	defer server.Close()

	repo := NewOpenMeteoRepository(server.URL, server.URL, http.DefaultClient, observe.NewZapLogger("test-app", "test"))

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

	records, err := repo.FetchHistorical(context.Background(), 14.46, 75.92, start, end)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, start, records[0].Date)
	assert.Equal(t, 34.1, records[0].TempMax)
	assert.Equal(t, 24.2, records[0].TempMin)
	assert.Equal(t, 3, records[0].WeatherCode)

	require.NotNil(t, records[0].Humidity)
	assert.Equal(t, 55.0, *records[0].Humidity)

	// Null humidity stays nil rather than becoming 0.
	assert.Nil(t, records[1].Humidity)
	assert.Equal(t, 12.4, records[1].Precipitation)
}

func TestOpenMeteo_FetchForecastRequestsFixedHorizon(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("forecast_days"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(openMeteoDailyJSON))
	}))
	defer server.Close()

	repo := NewOpenMeteoRepository(server.URL, server.URL, http.DefaultClient, observe.NewZapLogger("test-app", "test"))

	records, err := repo.FetchForecast(context.Background(), 14.46, 75.92)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestOpenMeteo_EmptyDailyBlockIsErrNoWeatherData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"daily": {"time": []}}`))
	}))
	defer server.Close()

	repo := NewOpenMeteoRepository(server.URL, server.URL, http.DefaultClient, observe.NewZapLogger("test-app", "test"))

	_, err := repo.FetchForecast(context.Background(), 14.46, 75.92)
	assert.ErrorIs(t, err, ErrNoWeatherData)
}

func TestOpenMeteo_HTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": true, "reason": "Latitude must be in range"}`))
	}))
	defer server.Close()

	repo := NewOpenMeteoRepository(server.URL, server.URL, http.DefaultClient, observe.NewZapLogger("test-app", "test"))

	_, err := repo.FetchForecast(context.Background(), 999, 999)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoWeatherData)
}

func TestOpenMeteo_RaggedArraysTruncateToShortest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"daily": {
				"time": ["2025-06-01", "2025-06-02", "2025-06-03"],
				"weathercode": [1],
				"temperature_2m_max": [30.0, 31.0],
				"temperature_2m_min": [20.0, 21.0],
				"precipitation_sum": [0.0, 1.0],
				"relative_humidity_2m_mean": [50.0]
			}
		}`))
	}))
	defer server.Close()

	repo := NewOpenMeteoRepository(server.URL, server.URL, http.DefaultClient, observe.NewZapLogger("test-app", "test"))

	records, err := repo.FetchForecast(context.Background(), 14.46, 75.92)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 1, records[0].WeatherCode)
	assert.Equal(t, 0, records[1].WeatherCode)
	assert.Nil(t, records[1].Humidity)
}
