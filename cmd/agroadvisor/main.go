package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agroadvisor/config"
	v1 "agroadvisor/internal/controllers/http/v1"
	"agroadvisor/internal/repositories"
	"agroadvisor/internal/services/predict"
	"agroadvisor/internal/services/recommend"
	"agroadvisor/internal/services/weather"
	"agroadvisor/pkg/httpclient"
	"agroadvisor/pkg/httpserver"
	"agroadvisor/pkg/observe"
)

// @title AgroAdvisor API
// @version 1.0.0
// @description Crop recommendation and market price prediction API for farmers.
// @description Combines pre-trained suitability and yield models with live weather and geocoding lookups, and trains a per-request price model on demand.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @tag.name Recommendation
// @tag.description Crop recommendation operations
// @tag.name Prediction
// @tag.description Market price prediction operations
// @tag.name Weather
// @tag.description Seasonal climate summaries
func main() {
	ctx, cancel := context.WithCancel(context.Background())

	cnf, err := config.NewConfig("config/config.yaml")
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot load config:", err)
		os.Exit(1)
	}

	writers := []io.Writer{os.Stdout}
	if cnf.Sentry.DSN != "" {
		writers = append(writers, observe.NewSentryHook(cnf.AppEnv, cnf.AppName, cnf.AppEnv == "development", cnf.Sentry.DSN))
	}

	l := observe.NewZapLogger(cnf.AppName, cnf.AppEnv, writers...)

	app := httpserver.InitFiberServer(cnf.AppName)

	client := httpclient.New(time.Duration(cnf.HTTP.TimeoutSeconds)*time.Second, cnf.HTTP.MaxRetries, l)

	geocoder := repositories.InitGeocoder(cnf, client, l)
	geoCache := repositories.NewGeoCache(cnf.GeoCacheFile, geocoder, l)
	openMeteo := repositories.NewOpenMeteoRepository(cnf.Weather.ArchiveURL, cnf.Weather.ForecastURL, client, l)
	priceStore := repositories.NewPriceStore(cnf.DataDir, l)

	weatherService := weather.NewService(openMeteo, l)
	predictor := predict.NewService(priceStore, geoCache, weatherService, l)

	// A failed asset load disables recommendations but keeps the rest of
	// the service up.
	var engine *recommend.Engine
	if assets, err := recommend.LoadAssets(cnf, l); err != nil {
		l.Error(err, map[string]any{"msg": "recommendation capability disabled"})
	} else {
		engine = recommend.NewEngine(assets, l)
	}

	v1.NewRouter(
		app,
		engine,
		predictor,
		weatherService,
		geoCache,
		priceStore,
		l,
	)

	go func() {
		if err := app.Listen(":" + cnf.Port); err != nil {
			l.Fatal("cannot run the server", map[string]any{"err": err})
		}
	}()

	l.Info("application started successfully", map[string]any{
		"port":     cnf.Port,
		"degraded": engine == nil,
	})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		l.Warning("stopping application services")
		signal.Stop(sigCh)
		close(sigCh)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = app.ShutdownWithContext(shutdownCtx)
		_ = l.Stop()
		cancel()
	}()

	select {
	case <-sigCh:
		fmt.Println("received shutdown signal")
	case <-ctx.Done():
		fmt.Println("context cancelled")
	}
}
