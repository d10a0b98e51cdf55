// Package service trains the forecaster once from the daily table and
// answers prediction and evaluation requests against it. A Forecaster is
// read-only after New and safe for concurrent use.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"tempcast/internal/modules/forecast/model"
	"tempcast/internal/modules/forecast/pipeline"
	"tempcast/internal/utils"
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrUndefinedFeature = errors.New("feature is undefined")
	ErrNoTrainingRows   = errors.New("no complete training rows")
	ErrNoHeldOutRows    = errors.New("no evaluable held-out rows")
)

type Options struct {
	Alpha  float64
	Cutoff time.Time
}

func DefaultOptions() Options {
	return Options{
		Alpha:  model.DefaultAlpha,
		Cutoff: time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

type Forecaster struct {
	opts      Options
	records   []pipeline.Record
	test      []pipeline.Record
	trainRows int
	ridge     *model.Ridge

	latest      []float64
	doyMeans    map[int]float64
	doyFallback float64
	lastDefined []float64
}

type EvaluatedRow struct {
	Date      time.Time
	Actual    float64
	Predicted float64
}

type Evaluation struct {
	MAE     float64
	Rows    []EvaluatedRow
	Skipped int
}

type Info struct {
	Alpha        float64
	Cutoff       time.Time
	Predictors   []string
	Coefficients []float64
	Intercept    float64
	TrainRows    int
	TestRows     int
	FirstDate    time.Time
	LastDate     time.Time
}

// New splits records at opts.Cutoff, forward-fills each split on its own,
// and fits the ridge model on the complete training rows.
func New(records []pipeline.Record, opts Options) (*Forecaster, error) {
	if len(records) == 0 {
		return nil, ErrNoTrainingRows
	}

	train, test := pipeline.Split(records, opts.Cutoff)
	var x [][]float64
	var y []float64
	for _, r := range pipeline.FillForward(train) {
		if !r.Complete() {
			continue
		}
		x = append(x, r.Features())
		y = append(y, r.Target)
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: %d rows on or before %s", ErrNoTrainingRows, len(train), opts.Cutoff.Format(time.DateOnly))
	}

	ridge, err := model.Fit(x, y, opts.Alpha)
	if err != nil {
		return nil, fmt.Errorf("fit ridge: %w", err)
	}

	f := &Forecaster{
		opts:      opts,
		records:   records,
		test:      pipeline.FillForward(test),
		trainRows: len(x),
		ridge:     ridge,
	}
	f.computeState()

	slog.Info("forecaster trained",
		"train_rows", f.trainRows,
		"test_rows", len(f.test),
		"alpha", opts.Alpha,
		"cutoff", opts.Cutoff.Format(time.DateOnly),
	)
	return f, nil
}

// computeState derives everything a prediction needs apart from the
// requested date.
func (f *Forecaster) computeState() {
	last := f.records[len(f.records)-1]

	var monthSum float64
	var monthN int
	doySums := make(map[int]float64)
	doyCounts := make(map[int]int)
	for _, r := range f.records {
		if math.IsNaN(r.Temperature) {
			if _, ok := doyCounts[r.Date.YearDay()]; !ok {
				doyCounts[r.Date.YearDay()] = 0
			}
			continue
		}
		doySums[r.Date.YearDay()] += r.Temperature
		doyCounts[r.Date.YearDay()]++
		if r.Date.Year() == last.Date.Year() && r.Date.Month() == last.Date.Month() {
			monthSum += r.Temperature
			monthN++
		}
	}

	monthlyAvg := math.NaN()
	if monthN > 0 {
		monthlyAvg = monthSum / float64(monthN)
	}
	f.latest = []float64{last.Temperature, last.Humidity, last.MonthMax, monthlyAvg}

	f.doyMeans = make(map[int]float64, len(doyCounts))
	var meanSum float64
	var meanN int
	for k, n := range doyCounts {
		if n == 0 {
			f.doyMeans[k] = math.NaN()
			continue
		}
		f.doyMeans[k] = doySums[k] / float64(n)
		meanSum += f.doyMeans[k]
		meanN++
	}
	f.doyFallback = math.NaN()
	if meanN > 0 {
		f.doyFallback = meanSum / float64(meanN)
	}

	f.lastDefined = make([]float64, len(pipeline.Predictors))
	for c := range f.lastDefined {
		f.lastDefined[c] = math.NaN()
		for i := len(f.records) - 1; i >= 0; i-- {
			if v := f.records[i].Features()[c]; !math.IsNaN(v) {
				f.lastDefined[c] = v
				break
			}
		}
	}
}

// Predict parses a day-first date and forecasts the average temperature for
// it.
func (f *Forecaster) Predict(raw string) (float64, error) {
	d, err := utils.ParseDayFirst(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return f.PredictAt(d)
}

func (f *Forecaster) PredictAt(d time.Time) (float64, error) {
	row, err := f.FeatureRow(d)
	if err != nil {
		return 0, err
	}
	return f.ridge.Predict(row), nil
}

// FeatureRow builds the predictor row for d. Only day_of_year_avg depends on
// d; the rest describe the latest state of the table.
func (f *Forecaster) FeatureRow(d time.Time) ([]float64, error) {
	doy, ok := f.doyMeans[d.YearDay()]
	if !ok {
		doy = f.doyFallback
	}
	row := append(append([]float64{}, f.latest...), doy)

	for c, v := range row {
		if !math.IsNaN(v) {
			continue
		}
		row[c] = f.lastDefined[c]
		if math.IsNaN(row[c]) {
			return nil, fmt.Errorf("%w: %s", ErrUndefinedFeature, pipeline.Predictors[c])
		}
	}
	return row, nil
}

// Evaluate predicts every held-out row and reports the mean absolute error
// against its target. Rows still undefined after the fill are skipped.
func (f *Forecaster) Evaluate() (Evaluation, error) {
	var ev Evaluation
	var (
		kept   []pipeline.Record
		rows   [][]float64
		actual []float64
	)
	for _, r := range f.test {
		feats := r.Features()
		if math.IsNaN(r.Target) || !defined(feats) {
			ev.Skipped++
			continue
		}
		kept = append(kept, r)
		rows = append(rows, feats)
		actual = append(actual, r.Target)
	}
	if len(kept) == 0 {
		return Evaluation{}, fmt.Errorf("%w: %d held-out rows after %s", ErrNoHeldOutRows, len(f.test), f.opts.Cutoff.Format(time.DateOnly))
	}

	predicted := f.ridge.PredictBatch(rows)
	ev.Rows = make([]EvaluatedRow, len(kept))
	for i, r := range kept {
		ev.Rows[i] = EvaluatedRow{Date: r.Date, Actual: actual[i], Predicted: predicted[i]}
	}

	mae, err := model.MeanAbsoluteError(actual, predicted)
	if err != nil {
		return Evaluation{}, err
	}
	ev.MAE = mae
	return ev, nil
}

func (f *Forecaster) Info() Info {
	return Info{
		Alpha:        f.ridge.Alpha(),
		Cutoff:       f.opts.Cutoff,
		Predictors:   append([]string{}, pipeline.Predictors...),
		Coefficients: f.ridge.Coefficients(),
		Intercept:    f.ridge.Intercept(),
		TrainRows:    f.trainRows,
		TestRows:     len(f.test),
		FirstDate:    f.records[0].Date,
		LastDate:     f.records[len(f.records)-1].Date,
	}
}

// Records returns the daily table the model was trained from. Callers must
// not modify it.
func (f *Forecaster) Records() []pipeline.Record {
	return f.records
}

func defined(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return false
		}
	}
	return true
}
