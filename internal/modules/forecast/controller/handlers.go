package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"tempcast/internal/modules/forecast/service"
	"tempcast/internal/utils"
)

func (c *forecastControllerImpl) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := c.validate.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "'date' is required")
		return
	}

	predicted, err := c.forecaster.Predict(req.Date)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("predict failed", "date", req.Date, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, predictResponse{
		Date:                 req.Date,
		PredictedTemperature: round2(predicted),
	})
}

func (c *forecastControllerImpl) handleTestModel(w http.ResponseWriter, r *http.Request) {
	ev, err := c.forecaster.Evaluate()
	if err != nil {
		slog.Error("evaluate failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, toTestModelResponse(ev))
}

func (c *forecastControllerImpl) handleModel(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, toModelResponse(c.forecaster.Info()))
}

func (c *forecastControllerImpl) handleDaily(w http.ResponseWriter, r *http.Request) {
	from, to, limit, err := utils.ParseWindowQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := make([]dailyRow, 0, limit)
	for _, rec := range c.forecaster.Records() {
		if len(rows) == limit {
			break
		}
		if !from.IsZero() && rec.Date.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Date.After(to) {
			break
		}
		rows = append(rows, toDailyRow(rec))
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}
