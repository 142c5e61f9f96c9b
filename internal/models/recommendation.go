package models

// RecommendationInput is the validated soil/climate/location form from the
// web layer.
type RecommendationInput struct {
	Nitrogen    float64 `json:"nitrogen"`
	Phosphorous float64 `json:"phosphorous"`
	Potassium   float64 `json:"potassium"`
	PH          float64 `json:"ph"`
	Rainfall    float64 `json:"rainfall"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	District    string  `json:"district"`
	Season      string  `json:"season"`
}

// Vector returns the classifier feature vector {N, P, K, ph, rainfall,
// temperature, humidity} in model order.
func (in RecommendationInput) Vector() []float64 {
	return []float64{
		in.Nitrogen,
		in.Phosphorous,
		in.Potassium,
		in.PH,
		in.Rainfall,
		in.Temperature,
		in.Humidity,
	}
}

// YieldInfo is a precomputed historical average yield for a crop, joined for
// display only.
type YieldInfo struct {
	AvgYield float64 `json:"avg_yield"`
	Unit     string  `json:"unit"`
}

// RecommendationCandidate is one ranked crop suggestion.
// AvgHistoricalYield is nil when the lookup has no entry for the crop.
type RecommendationCandidate struct {
	CropName            string   `json:"Crop_Name"`
	FinalScore          float64  `json:"Final_Score"`
	Suitability         float64  `json:"Suitability"`
	PredictedYieldScore float64  `json:"Predicted_Yield_Score"`
	AvgHistoricalYield  *float64 `json:"Avg_Historical_Yield,omitempty"`
	Unit                string   `json:"Unit,omitempty"`
}

// PriceForecast is the result of the per-crop price prediction pipeline.
type PriceForecast struct {
	PredictedPrice float64 `json:"predicted_price"`
	Market         string  `json:"market"`
	PredictionDate string  `json:"prediction_date"`
	ModelR2        float64 `json:"model_r2"`
	TrainRows      int     `json:"train_rows"`
}

// CropRecommendation pairs a candidate with its price forecast; Price is nil
// when no prediction was available for the crop.
type CropRecommendation struct {
	RecommendationCandidate
	Price *PriceForecast `json:"price,omitempty"`
}
