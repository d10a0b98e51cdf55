package app

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tempcast/internal/config"
	"tempcast/internal/modules/weather/types"
)

type fakeStore struct {
	readings []types.Reading
	err      error
}

func (f fakeStore) History() ([]types.Reading, error) { return f.readings, f.err }

// writeCSV writes a semicolon-delimited file with decimal-comma values, one
// 14:00 reading per day.
func writeCSV(t *testing.T, start time.Time, days int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Fecha;Temperatura;Humedad\n")
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		temp := 18 + 8*math.Cos(2*math.Pi*float64(d.YearDay())/365)
		fmt.Fprintf(&b, "%s 14:00;%s;%d\n",
			d.Format("02/01/2006"),
			strings.Replace(fmt.Sprintf("%.1f", temp), ".", ",", 1),
			50+i%20,
		)
	}
	path := filepath.Join(t.TempDir(), "readings.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func testConfig() config.Config {
	return config.Config{
		ReadingsSource: config.SourceCSV,
		CSVDelimiter:   ';',
		SampleTime:     14 * time.Hour,
		TrainCutoff:    time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
		RidgeAlpha:     0.1,
	}
}

func TestLoadReadingsAndTrain_FromCSV(t *testing.T) {
	cfg := testConfig()
	cfg.ReadingsCSV = writeCSV(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 730)

	readings, err := LoadReadings(cfg, nil)
	if err != nil {
		t.Fatalf("LoadReadings: %v", err)
	}
	if len(readings) != 730 {
		t.Fatalf("len(readings) = %d; want 730", len(readings))
	}

	forecaster, err := TrainForecaster(cfg, readings)
	if err != nil {
		t.Fatalf("TrainForecaster: %v", err)
	}
	if _, err := forecaster.Predict("19/12/2024"); err != nil {
		t.Errorf("Predict: %v", err)
	}
	ev, err := forecaster.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Rows[0].Date.Year() != 2022 {
		t.Errorf("first evaluated date = %v; want 2022", ev.Rows[0].Date)
	}
}

func TestLoadReadings_Sources(t *testing.T) {
	cfg := testConfig()

	cfg.ReadingsSource = config.SourceSQLite
	want := []types.Reading{{Time: time.Now(), Temperature: 1, Humidity: 2}}
	got, err := LoadReadings(cfg, fakeStore{readings: want})
	if err != nil || len(got) != 1 {
		t.Errorf("LoadReadings(sqlite) = %v, %v", got, err)
	}

	storeErr := errors.New("locked")
	if _, err := LoadReadings(cfg, fakeStore{err: storeErr}); !errors.Is(err, storeErr) {
		t.Errorf("LoadReadings err = %v; want %v", err, storeErr)
	}
	if _, err := LoadReadings(cfg, nil); err == nil {
		t.Error("LoadReadings(sqlite, nil store) err = nil")
	}

	cfg.ReadingsSource = "parquet"
	if _, err := LoadReadings(cfg, nil); err == nil {
		t.Error("LoadReadings(unknown source) err = nil")
	}
}

func TestTrainForecaster_PipelineErrorsSurface(t *testing.T) {
	_, err := TrainForecaster(testConfig(), nil)
	if err == nil || !strings.Contains(err.Error(), "build daily table") {
		t.Fatalf("TrainForecaster(nil) err = %v; want build daily table error", err)
	}
}
