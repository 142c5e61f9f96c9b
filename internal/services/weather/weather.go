package weather

import (
	"context"
	"time"

	"agroadvisor/internal/models"
	"agroadvisor/pkg/observe"
)

// Fallbacks used when a seasonal bucket has no observations.
const (
	defaultAvgTemp     = 25.0
	defaultAnnualRain  = 1000.0
	defaultAvgHumidity = 60.0
)

// The archive lags a few days behind real time; historical windows are
// clamped to end before the gap.
const archiveLatencyDays = 5

// seasonMonths defines the calendar buckets. Kharif and Summer overlap on
// the monsoon transition months by design.
var seasonMonths = map[string][]time.Month{
	models.SeasonRabi:      {time.October, time.November, time.December, time.January, time.February, time.March},
	models.SeasonKharif:    {time.June, time.July, time.August, time.September, time.October},
	models.SeasonSummer:    {time.March, time.April, time.May, time.June},
	models.SeasonWholeYear: {time.January, time.February, time.March, time.April, time.May, time.June, time.July, time.August, time.September, time.October, time.November, time.December},
}

// SeasonOrder is the fixed presentation order for summaries.
var SeasonOrder = []string{models.SeasonRabi, models.SeasonKharif, models.SeasonSummer, models.SeasonWholeYear}

// Provider fetches daily weather series for a coordinate.
type Provider interface {
	FetchHistorical(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.DailyWeatherRecord, error)
	FetchForecast(ctx context.Context, lat, lon float64) ([]models.DailyWeatherRecord, error)
}

// Service aggregates daily weather into seasonal summaries.
type Service struct {
	provider Provider
	l        *observe.Logger
	now      func() time.Time
}

func NewService(provider Provider, l *observe.Logger) *Service {
	return &Service{
		provider: provider,
		l:        l,
		now:      time.Now,
	}
}

// Historical fetches the daily series for [start, end], clamping end to stay
// clear of the archive's data-latency gap.
func (s *Service) Historical(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.DailyWeatherRecord, error) {
	latest := s.now().AddDate(0, 0, -archiveLatencyDays)
	if end.After(latest) {
		end = latest
	}

	return s.provider.FetchHistorical(ctx, lat, lon, start, end)
}

// Forecast fetches the near-term daily series.
func (s *Service) Forecast(ctx context.Context, lat, lon float64) ([]models.DailyWeatherRecord, error) {
	return s.provider.FetchForecast(ctx, lat, lon)
}

// SeasonalSummaries buckets the records into the four season definitions and
// summarizes each bucket. Empty buckets fall back to fixed defaults instead
// of propagating nulls.
func (s *Service) SeasonalSummaries(records []models.DailyWeatherRecord) []models.SeasonalSummary {
	summaries := make([]models.SeasonalSummary, 0, len(SeasonOrder))

	for _, season := range SeasonOrder {
		bucket := bucketRecords(records, seasonMonths[season])
		summary := seasonStats(bucket)
		summary.Season = season
		summaries = append(summaries, summary)
	}

	return summaries
}

func bucketRecords(records []models.DailyWeatherRecord, months []time.Month) []models.DailyWeatherRecord {
	inSeason := make(map[time.Month]bool, len(months))
	for _, m := range months {
		inSeason[m] = true
	}

	var bucket []models.DailyWeatherRecord
	for _, r := range records {
		if inSeason[r.Date.Month()] {
			bucket = append(bucket, r)
		}
	}

	return bucket
}

// seasonStats summarizes one bucket. Annual rainfall is total precipitation
// divided by the number of distinct years observed (zero years counts as
// one). An empty bucket returns the fixed defaults.
func seasonStats(bucket []models.DailyWeatherRecord) models.SeasonalSummary {
	if len(bucket) == 0 {
		return models.SeasonalSummary{
			AvgTemp:           defaultAvgTemp,
			AvgAnnualRainfall: defaultAnnualRain,
			AvgHumidity:       defaultAvgHumidity,
		}
	}

	years := make(map[int]bool)
	var tempSum, rainTotal float64
	var humiditySum float64
	var humidityCount int

	for _, r := range bucket {
		years[r.Date.Year()] = true
		tempSum += r.MeanTemp()
		rainTotal += r.Precipitation
		if r.Humidity != nil {
			humiditySum += *r.Humidity
			humidityCount++
		}
	}

	yearCount := len(years)
	if yearCount == 0 {
		yearCount = 1
	}

	avgHumidity := defaultAvgHumidity
	if humidityCount > 0 {
		avgHumidity = humiditySum / float64(humidityCount)
	}

	return models.SeasonalSummary{
		AvgTemp:           tempSum / float64(len(bucket)),
		AvgAnnualRainfall: rainTotal / float64(yearCount),
		AvgHumidity:       avgHumidity,
	}
}
