package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"agroadvisor/internal/models"
	"agroadvisor/pkg/observe"
)

const (
	// Daily variables requested from both the archive and forecast APIs.
	// The forecast shape sometimes omits relative humidity; the parser
	// treats it as nullable.
	openMeteoDailyParams = "weathercode,temperature_2m_max,temperature_2m_min,precipitation_sum,relative_humidity_2m_mean"

	// The archive is pinned to the ERA5 reanalysis dataset so multi-year
	// windows are consistent across years.
	openMeteoArchiveModel = "era5"

	forecastDays = 7
)

// ErrNoWeatherData signals a response without the expected daily block.
// Callers fall back or abort the branch rather than failing the request.
var ErrNoWeatherData = errors.New("no daily weather data")

// OpenMeteoRepository fetches daily weather series from the Open-Meteo
// archive (historical) and forecast APIs.
type OpenMeteoRepository struct {
	archiveURL  string
	forecastURL string
	httpClient  HTTPClient
	l           *observe.Logger
}

func NewOpenMeteoRepository(archiveURL, forecastURL string, httpClient HTTPClient, l *observe.Logger) *OpenMeteoRepository {
	return &OpenMeteoRepository{
		archiveURL:  archiveURL,
		forecastURL: forecastURL,
		httpClient:  httpClient,
		l:           l,
	}
}

func (o *OpenMeteoRepository) Name() string {
	return "open-meteo"
}

type openMeteoDaily struct {
	Time          []string   `json:"time"`
	WeatherCode   []int      `json:"weathercode"`
	TempMax       []float64  `json:"temperature_2m_max"`
	TempMin       []float64  `json:"temperature_2m_min"`
	Precipitation []float64  `json:"precipitation_sum"`
	Humidity      []*float64 `json:"relative_humidity_2m_mean"`
}

// FetchHistorical fetches the full multi-year daily series for [start, end]
// from the archive API.
func (o *OpenMeteoRepository) FetchHistorical(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.DailyWeatherRecord, error) {
	url := fmt.Sprintf("%s?latitude=%f&longitude=%f&daily=%s&models=%s&start_date=%s&end_date=%s&timezone=auto",
		o.archiveURL, lat, lon, openMeteoDailyParams, openMeteoArchiveModel,
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	return o.fetchDaily(ctx, url, "historical")
}

// FetchForecast fetches the near-term daily series (fixed 7-day horizon).
func (o *OpenMeteoRepository) FetchForecast(ctx context.Context, lat, lon float64) ([]models.DailyWeatherRecord, error) {
	url := fmt.Sprintf("%s?latitude=%f&longitude=%f&daily=%s&forecast_days=%d&timezone=auto",
		o.forecastURL, lat, lon, openMeteoDailyParams, forecastDays)

	return o.fetchDaily(ctx, url, "forecast")
}

func (o *OpenMeteoRepository) fetchDaily(ctx context.Context, url, mode string) ([]models.DailyWeatherRecord, error) {
	o.l.Info("making openmeteo API request", map[string]any{"mode": mode, "url": url})

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
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

	var response struct {
		Daily openMeteoDaily `json:"daily"`
	}

	if err = json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if len(response.Daily.Time) == 0 {
		return nil, ErrNoWeatherData
	}

	records, err := dailyRecords(response.Daily)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily records: %w", err)
	}

	o.l.Info("fetched openmeteo daily data", map[string]any{"mode": mode, "days": len(records)})

	return records, nil
}

func dailyRecords(daily openMeteoDaily) ([]models.DailyWeatherRecord, error) {
	n := min(len(daily.Time), len(daily.TempMax), len(daily.TempMin), len(daily.Precipitation))

	records := make([]models.DailyWeatherRecord, 0, n)

	for i := 0; i < n; i++ {
		date, err := time.Parse("2006-01-02", daily.Time[i])
		if err != nil {
			return nil, fmt.Errorf("failed to parse date %s: %w", daily.Time[i], err)
		}

		record := models.DailyWeatherRecord{
			Date:          date,
			TempMax:       daily.TempMax[i],
			TempMin:       daily.TempMin[i],
			Precipitation: daily.Precipitation[i],
		}

		if i < len(daily.WeatherCode) {
			record.WeatherCode = daily.WeatherCode[i]
		}
		if i < len(daily.Humidity) && daily.Humidity[i] != nil {
			h := *daily.Humidity[i]
			record.Humidity = &h
		}

		records = append(records, record)
	}

	return records, nil
}
