package controller

import (
	"net/http"

	"tempcast/internal/modules/forecast/pipeline"
	"tempcast/internal/modules/forecast/service"

	"github.com/go-playground/validator/v10"
)

// Forecaster is the part of *service.Forecaster the handlers need.
type Forecaster interface {
	Predict(raw string) (float64, error)
	Evaluate() (service.Evaluation, error)
	Info() service.Info
	Records() []pipeline.Record
}

type ForecastController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type forecastControllerImpl struct {
	forecaster Forecaster
	validate   *validator.Validate
}

func NewForecastController(forecaster Forecaster) ForecastController {
	return &forecastControllerImpl{
		forecaster: forecaster,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (c *forecastControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /predict_temperature/{$}", c.handlePredict)
	mux.HandleFunc("GET /test_model/{$}", c.handleTestModel)
	mux.HandleFunc("GET /api/v1/model", c.handleModel)
	mux.HandleFunc("GET /api/v1/daily", c.handleDaily)
}
