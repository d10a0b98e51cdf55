package controller

import (
	"net/http"

	"tempcast/internal/modules/weather/repository"
)

type WeatherController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type weatherControllerImpl struct {
	repository repository.ReadingRepository
}

func NewWeatherController(repository repository.ReadingRepository) WeatherController {
	return &weatherControllerImpl{repository: repository}
}

func (c *weatherControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/readings", c.handleReadings)
}
