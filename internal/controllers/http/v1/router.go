package http

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"agroadvisor/internal/repositories"
	"agroadvisor/internal/services/predict"
	"agroadvisor/internal/services/recommend"
	"agroadvisor/internal/services/weather"
	"agroadvisor/pkg/observe"
)

type routes struct {
	// engine is nil when model assets failed to load at startup; the
	// recommendation endpoint then reports a degraded service.
	engine    *recommend.Engine
	predictor *predict.Service
	weather   *weather.Service
	geo       *repositories.GeoCache
	prices    *repositories.PriceStore
	l         *observe.Logger
}

func NewRouter(
	app *fiber.App,
	engine *recommend.Engine,
	predictor *predict.Service,
	weatherService *weather.Service,
	geo *repositories.GeoCache,
	prices *repositories.PriceStore,
	l *observe.Logger,
) {
	r := &routes{
		engine:    engine,
		predictor: predictor,
		weather:   weatherService,
		geo:       geo,
		prices:    prices,
		l:         l,
	}

	// Swagger documentation
	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		swaggerData, err := os.ReadFile("docs/swagger.json")
		if err != nil {
			return c.Status(fiber.ErrInternalServerError.Code).JSON(fiber.Map{"error": "Failed to read Swagger documentation"})
		}

		c.Set("Content-Type", "application/json")
		return c.Send(swaggerData)
	})

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	// API routes
	api := app.Group("/api/v1")
	api.Post("/recommend", r.handleRecommend)
	api.Get("/predict", r.handlePredict)
	api.Get("/predict/options", r.handlePredictOptions)
	api.Get("/climate", r.handleClimate)
}
