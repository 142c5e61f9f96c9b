package predict

import (
	"math"
	"sort"
	"time"

	"agroadvisor/internal/models"
)

// Price rows are joined to the nearest weather observation within this
// tolerance; rows without a match are excluded rather than guessed.
const mergeTolerance = 24 * time.Hour

// BuildTrainingRows merges price rows with their nearest-in-time weather
// observations and derives calendar features. Rows with unparseable date or
// price are dropped; missing arrivals default to 0. An empty result is a
// normal signal that this crop/district cannot be forecast.
func BuildTrainingRows(prices []models.PriceRecord, weather []models.DailyWeatherRecord) []models.TrainingRow {
	cleaned := make([]models.PriceRecord, 0, len(prices))
	for _, p := range prices {
		if p.Date != nil && p.ModalPrice != nil {
			cleaned = append(cleaned, p)
		}
	}

	sort.Slice(cleaned, func(a, b int) bool { return cleaned[a].Date.Before(*cleaned[b].Date) })

	sorted := make([]models.DailyWeatherRecord, len(weather))
	copy(sorted, weather)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Date.Before(sorted[b].Date) })

	rows := make([]models.TrainingRow, 0, len(cleaned))

	for _, p := range cleaned {
		w, ok := nearestRecord(sorted, *p.Date)
		if !ok {
			continue
		}

		arrivals := 0.0
		if p.ArrivalsTonnes != nil {
			arrivals = *p.ArrivalsTonnes
		}

		rows = append(rows, buildRow(*p.Date, *p.ModalPrice, arrivals, w))
	}

	return rows
}

// nearestRecord finds the weather record closest in time to date, within the
// merge tolerance. Records must be sorted by date.
func nearestRecord(sorted []models.DailyWeatherRecord, date time.Time) (models.DailyWeatherRecord, bool) {
	if len(sorted) == 0 {
		return models.DailyWeatherRecord{}, false
	}

	i := sort.Search(len(sorted), func(i int) bool { return !sorted[i].Date.Before(date) })

	best := -1
	var bestDelta time.Duration

	for _, candidate := range []int{i - 1, i} {
		if candidate < 0 || candidate >= len(sorted) {
			continue
		}
		delta := absDuration(sorted[candidate].Date.Sub(date))
		if best == -1 || delta < bestDelta {
			best = candidate
			bestDelta = delta
		}
	}

	if best == -1 || bestDelta > mergeTolerance {
		return models.DailyWeatherRecord{}, false
	}

	return sorted[best], true
}

func buildRow(date time.Time, price, arrivals float64, w models.DailyWeatherRecord) models.TrainingRow {
	return models.TrainingRow{
		Date:           date,
		ModalPrice:     price,
		ArrivalsTonnes: arrivals,
		TempMax:        w.TempMax,
		TempMin:        w.TempMin,
		Precipitation:  w.Precipitation,
		DayOfYear:      date.YearDay(),
		Month:          int(date.Month()),
		Year:           date.Year(),
		Weekday:        mondayWeekday(date),
	}
}

// mondayWeekday numbers days Monday=0..Sunday=6, matching the convention the
// price models were defined with.
func mondayWeekday(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
