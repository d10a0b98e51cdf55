package controller

import (
	"math"
	"time"

	"tempcast/internal/modules/forecast/pipeline"
	"tempcast/internal/modules/forecast/service"
	"tempcast/internal/modules/weather/types"
)

type predictRequest struct {
	Date string `json:"date" validate:"required"`
}

type predictResponse struct {
	Date                 string  `json:"date"`
	PredictedTemperature float64 `json:"predicted_temperature"`
}

type predictionRow struct {
	Date      string  `json:"date"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

type testModelResponse struct {
	MeanAbsoluteError float64         `json:"mean_absolute_error"`
	Predictions       []predictionRow `json:"predictions"`
	Skipped           int             `json:"skipped"`
}

type modelResponse struct {
	Alpha        float64            `json:"alpha"`
	TrainCutoff  string             `json:"train_cutoff"`
	Predictors   []string           `json:"predictors"`
	Coefficients map[string]float64 `json:"coefficients"`
	Intercept    float64            `json:"intercept"`
	TrainRows    int                `json:"train_rows"`
	TestRows     int                `json:"test_rows"`
	FirstDate    string             `json:"first_date"`
	LastDate     string             `json:"last_date"`
}

type dailyRow struct {
	Date         string   `json:"date"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	Imputed      bool     `json:"imputed"`
	Target       *float64 `json:"target"`
	MonthMax     *float64 `json:"month_max"`
	MonthMin     *float64 `json:"month_min"`
	MonthDayMax  *float64 `json:"month_day_max"`
	MonthlyAvg   *float64 `json:"monthly_avg"`
	DayOfYearAvg *float64 `json:"day_of_year_avg"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func toTestModelResponse(ev service.Evaluation) testModelResponse {
	rows := make([]predictionRow, 0, len(ev.Rows))
	for _, r := range ev.Rows {
		rows = append(rows, predictionRow{
			Date:      r.Date.Format(time.DateOnly),
			Actual:    r.Actual,
			Predicted: r.Predicted,
		})
	}
	return testModelResponse{
		MeanAbsoluteError: round2(ev.MAE),
		Predictions:       rows,
		Skipped:           ev.Skipped,
	}
}

func toModelResponse(info service.Info) modelResponse {
	coef := make(map[string]float64, len(info.Predictors))
	for i, name := range info.Predictors {
		coef[name] = info.Coefficients[i]
	}
	return modelResponse{
		Alpha:        info.Alpha,
		TrainCutoff:  info.Cutoff.Format(time.DateOnly),
		Predictors:   info.Predictors,
		Coefficients: coef,
		Intercept:    info.Intercept,
		TrainRows:    info.TrainRows,
		TestRows:     info.TestRows,
		FirstDate:    info.FirstDate.Format(time.DateOnly),
		LastDate:     info.LastDate.Format(time.DateOnly),
	}
}

func toDailyRow(r pipeline.Record) dailyRow {
	return dailyRow{
		Date:         r.Date.Format(time.DateOnly),
		Temperature:  types.Nullable(r.Temperature),
		Humidity:     types.Nullable(r.Humidity),
		Imputed:      r.Imputed,
		Target:       types.Nullable(r.Target),
		MonthMax:     types.Nullable(r.MonthMax),
		MonthMin:     types.Nullable(r.MonthMin),
		MonthDayMax:  types.Nullable(r.MonthDayMax),
		MonthlyAvg:   types.Nullable(r.MonthlyAvg),
		DayOfYearAvg: types.Nullable(r.DayOfYearAvg),
	}
}
