package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tempcast/internal/config"
	"tempcast/internal/db"
	"tempcast/internal/httpapi"
	"tempcast/internal/migrate"
	"tempcast/internal/modules/forecast"
	"tempcast/internal/modules/weather"
	"tempcast/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"readingsSource", cfg.ReadingsSource,
		"readingsCSV", cfg.ReadingsCSV,
		"sampleTime", cfg.SampleTime,
		"sampleTolerance", cfg.SampleTolerance,
		"trainCutoff", cfg.TrainCutoff.Format("2006-01-02"),
		"ridgeAlpha", cfg.RidgeAlpha,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)
	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if _, err := migrate.Run(dbConn); err != nil {
		return err
	}

	// The handler must be set before Connect: the broker may deliver queued
	// messages right after CONNACK.
	var subscriber *mqtt.Subscriber
	var telemetry mqtt.MQTTSubscriber
	if cfg.MQTTEnabled {
		subscriber, err = mqtt.NewSubscriber(cfg, slog.Default().With("component", "mqtt"))
		if err != nil {
			return err
		}
		telemetry = subscriber
	}

	mux := httpapi.NewMux(dbConn)
	weatherService := weather.RegisterFeature(mux, dbConn, telemetry, slog.Default().With("component", "weather"))

	readings, err := LoadReadings(cfg, weatherService)
	if err != nil {
		return err
	}
	forecaster, err := TrainForecaster(cfg, readings)
	if err != nil {
		return err
	}
	forecast.RegisterFeature(mux, forecaster)

	if subscriber != nil {
		// Don't block startup on a missing broker; paho keeps retrying.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if subscriber != nil {
		slog.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
