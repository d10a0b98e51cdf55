package forecast

import (
	"net/http"

	"tempcast/internal/modules/forecast/controller"
	"tempcast/internal/modules/forecast/service"
)

func RegisterFeature(mux *http.ServeMux, forecaster *service.Forecaster) {
	forecastController := controller.NewForecastController(forecaster)
	forecastController.RegisterRoutes(mux)
}
