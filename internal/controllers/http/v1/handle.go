package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"agroadvisor/internal/models"
	"agroadvisor/internal/services/predict"
)

// RecommendRequest is the soil/climate/location form for crop
// recommendations.
type RecommendRequest struct {
	Nitrogen    float64 `json:"nitrogen" example:"90"`
	Phosphorous float64 `json:"phosphorous" example:"40"`
	Potassium   float64 `json:"potassium" example:"40"`
	PH          float64 `json:"ph" example:"6.5"`
	Rainfall    float64 `json:"rainfall" example:"1000"`
	Temperature float64 `json:"temperature" example:"25"`
	Humidity    float64 `json:"humidity" example:"60"`
	District    string  `json:"district" example:"Davanagere"`
	Season      string  `json:"season" example:"Kharif"`
}

// RecommendResponse is the ranked recommendation list. Entries without a
// price forecast carry a null price.
type RecommendResponse struct {
	District        string                      `json:"district"`
	Season          string                      `json:"season"`
	Recommendations []models.CropRecommendation `json:"recommendations"`
}

// PredictResponse is a standalone price forecast.
type PredictResponse struct {
	CropName     string  `json:"crop_name"`
	DistrictName string  `json:"district_name"`
	models.PriceForecast
}

// OptionsResponse lists the crop and district choices for the predict form.
type OptionsResponse struct {
	Crops     []string `json:"crops"`
	Districts []string `json:"districts"`
}

// ClimateResponse carries seasonal climate summaries for a location.
type ClimateResponse struct {
	Location models.Location          `json:"location"`
	Seasons  []models.SeasonalSummary `json:"seasons"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"Missing required parameter: crop"`
}

// handleRecommend godoc
// @Summary Recommend crops with price forecasts
// @Description Ranks up to five crops for the given soil and climate inputs, attaching a market price forecast per crop when one can be built
// @Tags Recommendation
// @Accept json
// @Produce json
// @Param request body RecommendRequest true "Soil, climate and location inputs"
// @Success 200 {object} RecommendResponse "Ranked recommendations"
// @Failure 400 {object} ErrorResponse "Bad request - invalid inputs"
// @Failure 503 {object} ErrorResponse "Recommendation models unavailable"
// @Router /api/v1/recommend [post]
func (r *routes) handleRecommend(c *fiber.Ctx) error {
	if r.engine == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "Recommendation models are not loaded",
		})
	}

	var req RecommendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid request body",
		})
	}

	if msg, ok := validateRecommendRequest(req); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
	}

	input := models.RecommendationInput{
		Nitrogen:    req.Nitrogen,
		Phosphorous: req.Phosphorous,
		Potassium:   req.Potassium,
		PH:          req.PH,
		Rainfall:    req.Rainfall,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		District:    req.District,
		Season:      req.Season,
	}

	candidates := r.engine.Recommend(input)

	recommendations := make([]models.CropRecommendation, 0, len(candidates))

	for _, candidate := range candidates {
		rec := models.CropRecommendation{RecommendationCandidate: candidate}

		// A failed forecast for one crop never fails the request; the
		// entry just goes out without a price.
		forecast, err := r.predictor.RunPricePrediction(c.Context(), candidate.CropName, req.District)
		switch {
		case err == nil:
			rec.Price = forecast
		case errors.Is(err, predict.ErrNoPrediction):
			r.l.Info("no price forecast for crop", map[string]any{
				"crop":     candidate.CropName,
				"district": req.District,
			})
		default:
			r.l.Error(err, map[string]any{"crop": candidate.CropName, "district": req.District})
		}

		recommendations = append(recommendations, rec)
	}

	return c.JSON(RecommendResponse{
		District:        req.District,
		Season:          req.Season,
		Recommendations: recommendations,
	})
}

// handlePredict godoc
// @Summary Predict a crop's market price
// @Description Trains a per-request price model for the crop and district and forecasts the modal price 90 days out
// @Tags Prediction
// @Produce json
// @Param crop query string true "Crop name" example(wheat)
// @Param district query string true "District name" example(Davanagere)
// @Success 200 {object} PredictResponse "Price forecast"
// @Failure 400 {object} ErrorResponse "Bad request - missing parameters"
// @Failure 404 {object} ErrorResponse "No prediction available for this crop/district"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/v1/predict [get]
func (r *routes) handlePredict(c *fiber.Ctx) error {
	crop := c.Query("crop")
	district := c.Query("district")

	if crop == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Missing required parameter: crop",
		})
	}
	if district == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Missing required parameter: district",
		})
	}

	forecast, err := r.predictor.RunPricePrediction(c.Context(), crop, district)
	if err != nil {
		if errors.Is(err, predict.ErrNoPrediction) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "No price data or model could be built for this crop and district",
			})
		}

		r.l.Error(err, map[string]any{"crop": crop, "district": district})
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to build price prediction",
		})
	}

	return c.JSON(PredictResponse{
		CropName:      crop,
		DistrictName:  district,
		PriceForecast: *forecast,
	})
}

// handlePredictOptions godoc
// @Summary List predict form choices
// @Description Lists the crops and districts available for price prediction
// @Tags Prediction
// @Produce json
// @Success 200 {object} OptionsResponse "Available options"
// @Failure 500 {object} ErrorResponse "Data files for prediction are missing"
// @Router /api/v1/predict/options [get]
func (r *routes) handlePredictOptions(c *fiber.Ctx) error {
	crops, err := r.prices.CropOptions()
	if err != nil {
		r.l.Error(err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Data files for prediction are missing",
		})
	}

	districts, err := r.prices.DistrictOptions()
	if err != nil {
		r.l.Error(err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Data files for prediction are missing",
		})
	}

	return c.JSON(OptionsResponse{Crops: crops, Districts: districts})
}

// handleClimate godoc
// @Summary Seasonal climate summary for a market
// @Description Geocodes the market and summarizes the last three years of weather per agricultural season, for prefilling the recommendation form
// @Tags Weather
// @Produce json
// @Param market query string false "Market name"
// @Param district query string true "District name" example(Davanagere)
// @Param state query string false "State name"
// @Success 200 {object} ClimateResponse "Seasonal summaries"
// @Failure 400 {object} ErrorResponse "Bad request - missing parameters"
// @Failure 404 {object} ErrorResponse "Location could not be geocoded"
// @Failure 502 {object} ErrorResponse "Weather service unavailable"
// @Router /api/v1/climate [get]
func (r *routes) handleClimate(c *fiber.Ctx) error {
	market := c.Query("market")
	district := c.Query("district")
	state := c.Query("state")

	if district == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Missing required parameter: district",
		})
	}

	loc, err := r.geo.Resolve(c.Context(), market, district, state)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "Location could not be geocoded",
		})
	}

	end := time.Now()
	start := end.AddDate(-3, 0, 0)

	records, err := r.weather.Historical(c.Context(), loc.Latitude, loc.Longitude, start, end)
	if err != nil {
		r.l.Warning("climate summary weather fetch failed", map[string]any{
			"district": district,
			"err":      err.Error(),
		})
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error: "Weather service unavailable",
		})
	}

	return c.JSON(ClimateResponse{
		Location: *loc,
		Seasons:  r.weather.SeasonalSummaries(records),
	})
}

func validateRecommendRequest(req RecommendRequest) (string, bool) {
	switch {
	case req.District == "":
		return "Missing required field: district", false
	case req.Season == "":
		return "Missing required field: season", false
	case req.PH < 0 || req.PH > 14:
		return "pH must be between 0 and 14", false
	case req.Nitrogen < 0 || req.Phosphorous < 0 || req.Potassium < 0:
		return "Nutrient values must be non-negative", false
	case req.Rainfall < 0:
		return "Rainfall must be non-negative", false
	case req.Humidity < 0 || req.Humidity > 100:
		return "Humidity must be between 0 and 100", false
	}

	return "", true
}
