package app

import (
	"fmt"
	"log/slog"

	"tempcast/internal/config"
	"tempcast/internal/modules/forecast/pipeline"
	forecastservice "tempcast/internal/modules/forecast/service"
	"tempcast/internal/modules/weather/csvsource"
	"tempcast/internal/modules/weather/types"
)

// ReadingStore is where stored readings come from when READINGS_SOURCE=sqlite.
type ReadingStore interface {
	History() ([]types.Reading, error)
}

// LoadReadings reads the training series from the configured source. store
// may be nil when the source is a CSV file.
func LoadReadings(cfg config.Config, store ReadingStore) ([]types.Reading, error) {
	switch cfg.ReadingsSource {
	case config.SourceSQLite:
		if store == nil {
			return nil, fmt.Errorf("readings source %q needs a database", cfg.ReadingsSource)
		}
		return store.History()
	case config.SourceCSV:
		return csvsource.LoadFile(cfg.ReadingsCSV, csvsource.Options{Delimiter: cfg.CSVDelimiter})
	default:
		return nil, fmt.Errorf("unknown readings source %q", cfg.ReadingsSource)
	}
}

// TrainForecaster builds the daily table and fits the model on it.
func TrainForecaster(cfg config.Config, readings []types.Reading) (*forecastservice.Forecaster, error) {
	records, err := pipeline.Build(readings, pipeline.Options{
		SampleTime: cfg.SampleTime,
		Tolerance:  cfg.SampleTolerance,
	})
	if err != nil {
		return nil, fmt.Errorf("build daily table: %w", err)
	}
	slog.Info("daily table built",
		"readings", len(readings),
		"days", len(records),
		"first", records[0].Date.Format("2006-01-02"),
		"last", records[len(records)-1].Date.Format("2006-01-02"),
	)

	forecaster, err := forecastservice.New(records, forecastservice.Options{
		Alpha:  cfg.RidgeAlpha,
		Cutoff: cfg.TrainCutoff,
	})
	if err != nil {
		return nil, fmt.Errorf("train forecaster: %w", err)
	}
	return forecaster, nil
}
