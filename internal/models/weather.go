package models

import "time"

// DailyWeatherRecord is one day of observed or forecasted weather for a
// coordinate. Humidity is nullable because the archive and forecast API
// shapes do not always carry it.
type DailyWeatherRecord struct {
	Date          time.Time `json:"date"`
	TempMax       float64   `json:"temp_max"`
	TempMin       float64   `json:"temp_min"`
	Precipitation float64   `json:"precipitation"`
	Humidity      *float64  `json:"humidity,omitempty"`
	WeatherCode   int       `json:"weather_code"`
}

// MeanTemp is the midpoint of the day's max and min temperatures.
func (r DailyWeatherRecord) MeanTemp() float64 {
	return (r.TempMax + r.TempMin) / 2
}

// Season labels for the Indian agricultural calendar. Kharif and Summer
// overlap by design, mirroring the monsoon transition.
const (
	SeasonRabi      = "Rabi"
	SeasonKharif    = "Kharif"
	SeasonSummer    = "Summer"
	SeasonWholeYear = "Whole Year"
)

// SeasonalSummary aggregates a season's weather records. Recomputed on every
// request, never persisted.
type SeasonalSummary struct {
	Season            string  `json:"season"`
	AvgTemp           float64 `json:"avg_temp"`
	AvgAnnualRainfall float64 `json:"avg_annual_rainfall"`
	AvgHumidity       float64 `json:"avg_humidity"`
}

// LatestRecord returns the record with the greatest date, or false when the
// slice is empty.
func LatestRecord(records []DailyWeatherRecord) (DailyWeatherRecord, bool) {
	if len(records) == 0 {
		return DailyWeatherRecord{}, false
	}

	latest := records[0]
	for _, r := range records[1:] {
		if r.Date.After(latest.Date) {
			latest = r
		}
	}

	return latest, true
}
