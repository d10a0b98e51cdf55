package controller

import (
	"log/slog"
	"net/http"

	"tempcast/internal/modules/weather/types"
	"tempcast/internal/utils"
)

type readingsPage struct {
	Total    int                   `json:"total"`
	Offset   int                   `json:"offset"`
	Limit    int                   `json:"limit"`
	Readings []types.StoredReading `json:"readings"`
}

func (c *weatherControllerImpl) handleReadings(w http.ResponseWriter, r *http.Request) {
	from, to, limit, err := utils.ParseWindowQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := utils.ParseOffset(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	total, err := c.repository.GetReadingsCount(from, to)
	if err != nil {
		slog.Error("readings: count failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	readings, err := c.repository.GetReadings(from, to, limit, offset)
	if err != nil {
		slog.Error("readings: query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if readings == nil {
		readings = []types.StoredReading{}
	}

	utils.WriteJSON(w, http.StatusOK, readingsPage{
		Total:    total,
		Offset:   offset,
		Limit:    limit,
		Readings: readings,
	})
}
