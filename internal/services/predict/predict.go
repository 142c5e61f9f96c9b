// Package predict runs the per-crop price prediction pipeline: geocode the
// primary market, fetch historical and forecast weather, build a training
// table, fit a model and forecast a future price.
package predict

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"agroadvisor/internal/models"
	"agroadvisor/internal/repositories"
	"agroadvisor/internal/services/weather"
	"agroadvisor/pkg/observe"
)

// ErrNoPrediction means some pipeline stage came up empty for this
// crop/district. It is an expected outcome, shown as "N/A", and never aborts
// sibling crops.
var ErrNoPrediction = errors.New("no prediction available")

// How far ahead prices are forecast.
const predictionHorizonDays = 90

// Service sequences the prediction pipeline. Each stage that returns
// not-found/empty short-circuits the rest.
type Service struct {
	prices  *repositories.PriceStore
	geo     *repositories.GeoCache
	weather *weather.Service
	l       *observe.Logger
	now     func() time.Time
}

func NewService(prices *repositories.PriceStore, geo *repositories.GeoCache, weatherSvc *weather.Service, l *observe.Logger) *Service {
	return &Service{
		prices:  prices,
		geo:     geo,
		weather: weatherSvc,
		l:       l,
		now:     time.Now,
	}
}

// RunPricePrediction produces a price forecast for one crop in one district,
// or ErrNoPrediction when any stage has nothing to work with.
func (s *Service) RunPricePrediction(ctx context.Context, crop, district string) (*models.PriceForecast, error) {
	records, err := s.prices.LoadCrop(crop)
	if err != nil {
		if errors.Is(err, repositories.ErrNoPriceData) {
			return nil, errors.Wrap(ErrNoPrediction, "no price table for crop")
		}
		return nil, err
	}

	districtRows := repositories.FilterDistrict(records, district)
	if len(districtRows) == 0 {
		s.l.Info("no price rows for district", map[string]any{"crop": crop, "district": district})
		return nil, errors.Wrap(ErrNoPrediction, "no rows for district")
	}

	market, state, err := repositories.PrimaryMarket(districtRows)
	if err != nil {
		return nil, errors.Wrap(ErrNoPrediction, "could not determine primary market")
	}

	marketRows := repositories.FilterMarket(districtRows, market)

	s.l.Info("selected primary market", map[string]any{
		"crop":     crop,
		"district": district,
		"market":   market,
		"rows":     len(marketRows),
	})

	loc, err := s.geo.Resolve(ctx, market, district, state)
	if err != nil {
		s.l.Info("could not geocode market", map[string]any{"market": market, "district": district})
		return nil, errors.Wrap(ErrNoPrediction, "market not geocodable")
	}

	start, end, ok := dateRange(marketRows)
	if !ok {
		return nil, errors.Wrap(ErrNoPrediction, "no dated price rows")
	}

	histWeather, err := s.weather.Historical(ctx, loc.Latitude, loc.Longitude, start, end)
	if err != nil {
		s.l.Warning("historical weather fetch failed", map[string]any{"err": err.Error()})
		return nil, errors.Wrap(ErrNoPrediction, "historical weather unavailable")
	}

	forecastWeather, err := s.weather.Forecast(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		s.l.Warning("forecast weather fetch failed", map[string]any{"err": err.Error()})
		return nil, errors.Wrap(ErrNoPrediction, "forecast weather unavailable")
	}

	rows := BuildTrainingRows(marketRows, histWeather)
	if len(rows) == 0 {
		s.l.Info("no rows after feature build", map[string]any{"crop": crop, "district": district})
		return nil, errors.Wrap(ErrNoPrediction, "no usable training rows")
	}

	model, err := Train(rows)
	if err != nil {
		if errors.Is(err, ErrInsufficientData) {
			s.l.Info("not enough rows to train", map[string]any{"crop": crop, "rows": len(rows)})
			return nil, errors.Wrap(ErrNoPrediction, "insufficient training data")
		}
		return nil, err
	}

	s.l.Info("model trained", map[string]any{
		"crop":       crop,
		"district":   district,
		"r2":         model.R2,
		"train_rows": model.TrainRows,
	})

	futureDate := s.now().AddDate(0, 0, predictionHorizonDays)

	// The forecast horizon is far shorter than the prediction horizon;
	// the latest forecast day stands in for the target date's weather.
	futureWeather, ok := models.LatestRecord(forecastWeather)
	if !ok {
		return nil, errors.Wrap(ErrNoPrediction, "empty forecast horizon")
	}

	lastArrivals := rows[len(rows)-1].ArrivalsTonnes

	price, err := model.Forecast(futureDate, futureWeather, lastArrivals)
	if err != nil {
		s.l.Warning("forecast failed", map[string]any{"crop": crop, "err": err.Error()})
		return nil, errors.Wrap(ErrNoPrediction, "forecast failed")
	}

	return &models.PriceForecast{
		PredictedPrice: round2(price),
		Market:         market,
		PredictionDate: futureDate.Format("2006-01-02"),
		ModelR2:        round4(model.R2),
		TrainRows:      model.TrainRows,
	}, nil
}

func dateRange(records []models.PriceRecord) (start, end time.Time, ok bool) {
	for _, r := range records {
		if r.Date == nil {
			continue
		}
		if !ok {
			start, end = *r.Date, *r.Date
			ok = true
			continue
		}
		if r.Date.Before(start) {
			start = *r.Date
		}
		if r.Date.After(end) {
			end = *r.Date
		}
	}
	return start, end, ok
}
