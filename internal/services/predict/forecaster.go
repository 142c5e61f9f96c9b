package predict

import (
	"errors"
	"time"

	"agroadvisor/internal/models"
)

// Forecast predicts the modal price for targetDate from one weather record
// and the last observed arrivals volume (a persistence assumption). The
// weather record is the latest day available in the forecast horizon, which
// may be well short of the target date; a known approximation.
func (m *TrainedModel) Forecast(targetDate time.Time, w models.DailyWeatherRecord, lastArrivals float64) (float64, error) {
	if m == nil || m.forest == nil {
		return 0, errors.New("no trained model")
	}

	row := buildRow(targetDate, 0, lastArrivals, w)

	return m.forest.Predict(row.Features()), nil
}
