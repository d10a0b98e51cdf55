package weather

import (
	"database/sql"
	"log/slog"
	"net/http"

	"tempcast/internal/modules/weather/controller"
	"tempcast/internal/modules/weather/repository"
	"tempcast/internal/modules/weather/service"
	"tempcast/internal/mqtt"
)

// RegisterFeature wires the reading store into the HTTP mux and, when a
// subscriber is given, into the telemetry stream.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, subscriber mqtt.MQTTSubscriber, logger *slog.Logger) *service.Service {
	weatherRepository := repository.NewRepository(db)
	weatherController := controller.NewWeatherController(weatherRepository)
	weatherController.RegisterRoutes(mux)

	weatherService := service.NewService(weatherRepository, logger)
	if subscriber != nil {
		weatherService.Register(subscriber)
	}
	return weatherService
}
