package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"tempcast/internal/modules/forecast/pipeline"
	"tempcast/internal/modules/weather/types"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seasonalReadings returns one 14:00 reading per day from start to end
// inclusive, with a yearly cycle plus a small deterministic wobble.
func seasonalReadings(start, end time.Time) []types.Reading {
	var out []types.Reading
	for i, d := 0, start; !d.After(end); i, d = i+1, d.AddDate(0, 0, 1) {
		yd := float64(d.YearDay())
		out = append(out, types.Reading{
			Time:        d.Add(14 * time.Hour),
			Temperature: 18 + 8*math.Cos(2*math.Pi*(yd-15)/365) + 0.7*math.Sin(float64(i)),
			Humidity:    60 + 10*math.Cos(0.7*float64(i)),
		})
	}
	return out
}

func buildTable(t *testing.T, start, end time.Time) []pipeline.Record {
	t.Helper()
	records, err := pipeline.Build(seasonalReadings(start, end), pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("pipeline.Build: %v", err)
	}
	return records
}

func threeYears(t *testing.T) *Forecaster {
	t.Helper()
	f, err := New(buildTable(t, date(2020, 1, 1), date(2022, 12, 31)), DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestEvaluate_OnlyHeldOutRows(t *testing.T) {
	f := threeYears(t)

	ev, err := f.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(ev.Rows) == 0 {
		t.Fatal("Evaluate returned no rows")
	}
	for _, r := range ev.Rows {
		if r.Date.Year() != 2022 {
			t.Fatalf("evaluated row dated %s, want 2022 only", r.Date.Format(time.DateOnly))
		}
	}
	if ev.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", ev.Skipped)
	}
	if len(ev.Rows) != 364 {
		t.Errorf("len(Rows) = %d, want 364 (2022-01-01..2022-12-30)", len(ev.Rows))
	}
	if math.IsNaN(ev.MAE) || ev.MAE < 0 || ev.MAE > 5 {
		t.Errorf("MAE = %v, want a small positive error on a smooth series", ev.MAE)
	}

	info := f.Info()
	if info.Alpha != 0.1 {
		t.Errorf("Info.Alpha = %v, want 0.1", info.Alpha)
	}
	var sum float64
	for _, r := range ev.Rows {
		sum += math.Abs(r.Actual - r.Predicted)
	}
	if got := sum / float64(len(ev.Rows)); math.Abs(got-ev.MAE) > 1e-9 {
		t.Errorf("MAE = %v, want mean of row errors %v", ev.MAE, got)
	}
	if info.TestRows != 364 {
		t.Errorf("Info.TestRows = %d, want 364", info.TestRows)
	}
	// the first 29 days of 2020 have no trailing 30-day window
	if info.TrainRows != 731-29 {
		t.Errorf("Info.TrainRows = %d, want %d", info.TrainRows, 731-29)
	}
}

func TestNew_DeterministicTraining(t *testing.T) {
	a := threeYears(t)
	b := threeYears(t)

	ca, cb := a.Info().Coefficients, b.Info().Coefficients
	for i := range ca {
		if ca[i] != cb[i] {
			t.Fatalf("coefficients differ: %v vs %v", ca, cb)
		}
	}
	pa, err := a.Predict("19/12/2024")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	pb, _ := b.Predict("19/12/2024")
	if pa != pb {
		t.Errorf("predictions differ: %v vs %v", pa, pb)
	}
}

func TestFeatureRow_UsesLatestState(t *testing.T) {
	f := threeYears(t)
	last := f.Records()[len(f.Records())-1]

	inHistory, err := f.FeatureRow(date(2020, 6, 15))
	if err != nil {
		t.Fatalf("FeatureRow: %v", err)
	}
	future, err := f.FeatureRow(date(2025, 6, 20))
	if err != nil {
		t.Fatalf("FeatureRow: %v", err)
	}

	if inHistory[0] != last.Temperature || inHistory[1] != last.Humidity {
		t.Errorf("temperature/humidity = %v/%v, want latest %v/%v", inHistory[0], inHistory[1], last.Temperature, last.Humidity)
	}
	if inHistory[2] != last.MonthMax {
		t.Errorf("month_max = %v, want latest %v", inHistory[2], last.MonthMax)
	}
	for i := 0; i < 4; i++ {
		if inHistory[i] != future[i] {
			t.Errorf("feature %s differs between dates: %v vs %v", pipeline.Predictors[i], inHistory[i], future[i])
		}
	}

	var sum float64
	var n int
	for _, r := range f.Records() {
		if r.Date.YearDay() == date(2020, 6, 15).YearDay() {
			sum += r.Temperature
			n++
		}
	}
	if got, want := inHistory[4], sum/float64(n); math.Abs(got-want) > 1e-9 {
		t.Errorf("day_of_year_avg = %v, want %v", got, want)
	}
}

func TestFeatureRow_MonthlyAvgIsLatestMonthMean(t *testing.T) {
	f := threeYears(t)

	var sum float64
	var n int
	for _, r := range f.Records() {
		if r.Date.Year() == 2022 && r.Date.Month() == time.December {
			sum += r.Temperature
			n++
		}
	}
	row, err := f.FeatureRow(date(2024, 12, 19))
	if err != nil {
		t.Fatalf("FeatureRow: %v", err)
	}
	if math.Abs(row[3]-sum/float64(n)) > 1e-9 {
		t.Errorf("monthly_avg = %v, want %v", row[3], sum/float64(n))
	}
}

func TestFeatureRow_UnknownDayOfYearFallsBack(t *testing.T) {
	records := buildTable(t, date(2021, 1, 1), date(2021, 3, 31))
	f, err := New(records, Options{Alpha: 0.1, Cutoff: date(2030, 1, 1)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	groups := make(map[int][]float64)
	for _, r := range records {
		groups[r.Date.YearDay()] = append(groups[r.Date.YearDay()], r.Temperature)
	}
	var sum float64
	for _, temps := range groups {
		var s float64
		for _, v := range temps {
			s += v
		}
		sum += s / float64(len(temps))
	}
	want := sum / float64(len(groups))

	row, err := f.FeatureRow(date(2024, 7, 1))
	if err != nil {
		t.Fatalf("FeatureRow: %v", err)
	}
	if math.Abs(row[4]-want) > 1e-9 {
		t.Errorf("day_of_year_avg = %v, want mean of group means %v", row[4], want)
	}

	if _, err := f.Evaluate(); !errors.Is(err, ErrNoHeldOutRows) {
		t.Errorf("Evaluate err = %v, want ErrNoHeldOutRows", err)
	}
}

func TestFeatureRow_FillsUndefinedFromLatestDefined(t *testing.T) {
	records := buildTable(t, date(2021, 1, 1), date(2021, 3, 31))
	prev := records[len(records)-2]
	records[len(records)-1].Temperature = math.NaN()
	records[len(records)-1].MonthMax = math.NaN()

	f, err := New(records, Options{Alpha: 0.1, Cutoff: date(2030, 1, 1)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	row, err := f.FeatureRow(date(2024, 3, 1))
	if err != nil {
		t.Fatalf("FeatureRow: %v", err)
	}
	if row[0] != prev.Temperature {
		t.Errorf("temperature = %v, want previous defined %v", row[0], prev.Temperature)
	}
	if row[2] != prev.MonthMax {
		t.Errorf("month_max = %v, want previous defined %v", row[2], prev.MonthMax)
	}
}

func TestFeatureRow_UndefinedFeature(t *testing.T) {
	f := threeYears(t)
	f.lastDefined[1] = math.NaN()
	f.latest[1] = math.NaN()

	if _, err := f.FeatureRow(date(2024, 1, 1)); !errors.Is(err, ErrUndefinedFeature) {
		t.Fatalf("FeatureRow err = %v, want ErrUndefinedFeature", err)
	}
}

func TestPredict_InvalidDate(t *testing.T) {
	f := threeYears(t)
	for _, raw := range []string{"", "not a date", "32/13/2024"} {
		if _, err := f.Predict(raw); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("Predict(%q) err = %v, want ErrInvalidDate", raw, err)
		}
	}
}

func TestPredict_Plausible(t *testing.T) {
	f := threeYears(t)
	got, err := f.Predict("19/12/2024")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got < 0 || got > 40 {
		t.Errorf("Predict = %v, want a plausible temperature", got)
	}
}

func TestNew_NoTrainingRows(t *testing.T) {
	records := buildTable(t, date(2021, 1, 1), date(2021, 1, 10))
	if _, err := New(records, DefaultOptions()); !errors.Is(err, ErrNoTrainingRows) {
		t.Fatalf("New err = %v, want ErrNoTrainingRows", err)
	}
	if _, err := New(nil, DefaultOptions()); !errors.Is(err, ErrNoTrainingRows) {
		t.Fatalf("New(nil) err = %v, want ErrNoTrainingRows", err)
	}
}
