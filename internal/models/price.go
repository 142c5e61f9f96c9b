package models

import "time"

// PriceRecord is one row of a per-crop market price table. Date and
// ModalPrice are pointers because source CSVs carry unparseable cells; rows
// with either missing are dropped during feature building, not at load time.
type PriceRecord struct {
	Date           *time.Time
	ModalPrice     *float64
	ArrivalsTonnes *float64
	District       string
	Market         string
	State          string
}

// TrainingRow is a PriceRecord joined to its nearest-in-time weather
// observation plus derived calendar features.
type TrainingRow struct {
	Date           time.Time
	ModalPrice     float64
	ArrivalsTonnes float64
	TempMax        float64
	TempMin        float64
	Precipitation  float64
	DayOfYear      int
	Month          int
	Year           int
	Weekday        int
}

// FeatureNames lists the model features in training order.
var FeatureNames = []string{
	"arrivals_tonnes", "temp_max", "temp_min", "precip", "doy", "month", "year", "dow",
}

// Features returns the row's feature vector in FeatureNames order.
func (r TrainingRow) Features() []float64 {
	return []float64{
		r.ArrivalsTonnes,
		r.TempMax,
		r.TempMin,
		r.Precipitation,
		float64(r.DayOfYear),
		float64(r.Month),
		float64(r.Year),
		float64(r.Weekday),
	}
}
