package repository

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"tempcast/internal/modules/weather/types"
	"tempcast/internal/utils"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/import-reading.sql
var importReadingSQL string

//go:embed sql/get-readings.sql
var getReadingsSQL string

//go:embed sql/get-all-readings.sql
var getAllReadingsSQL string

//go:embed sql/get-readings-count.sql
var getReadingsCountSQL string

// tsLayout is fixed width so that text order in SQLite is time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

var maxTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

type ReadingRepository interface {
	InsertReading(ts time.Time, temperature *float64, humidity *float64, source string) error
	InsertReadings(readings []types.Reading, source string) (int, error)
	GetReadings(from time.Time, to time.Time, limit int, offset int) ([]types.StoredReading, error)
	GetReadingsCount(from time.Time, to time.Time) (int, error)
	GetAllReadings() ([]types.Reading, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ReadingRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertReading(ts time.Time, temperature *float64, humidity *float64, source string) error {
	if err := validate(temperature, humidity); err != nil {
		return err
	}
	_, err := r.db.Exec(insertReadingSQL, formatTS(ts), nullFloat(temperature), nullFloat(humidity), source)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// InsertReadings upserts a batch in one transaction. On a timestamp already
// stored, the stored value wins per column and only NULLs are filled, so a
// file with duplicate timestamps keeps its first value like the CSV source
// does. Rows with no value at all are kept: the pipeline forward-fills them.
func (r *repositoryImpl) InsertReadings(readings []types.Reading, source string) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(importReadingSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("close insert statement", "error", err)
		}
	}()

	for i, rd := range readings {
		temperature := types.Nullable(rd.Temperature)
		humidity := types.Nullable(rd.Humidity)
		if err := validateHumidity(humidity); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("reading %d (%s): %w", i, rd.Time.Format(time.RFC3339), err)
		}
		if _, err := stmt.Exec(formatTS(rd.Time), nullFloat(temperature), nullFloat(humidity), source); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert reading %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(readings), nil
}

func (r *repositoryImpl) GetReadings(from time.Time, to time.Time, limit int, offset int) ([]types.StoredReading, error) {
	fromStr, toStr := bounds(from, to)
	rows, err := r.db.Query(getReadingsSQL, fromStr, toStr, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func (r *repositoryImpl) GetReadingsCount(from time.Time, to time.Time) (int, error) {
	fromStr, toStr := bounds(from, to)
	var n int
	err := r.db.QueryRow(getReadingsCountSQL, fromStr, toStr).Scan(&n)
	return n, err
}

// GetAllReadings returns the whole store in time order, as pipeline input.
func (r *repositoryImpl) GetAllReadings() ([]types.Reading, error) {
	rows, err := r.db.Query(getAllReadingsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close all readings rows", "error", err)
		}
	}()
	stored, err := scanReadings(rows)
	if err != nil {
		return nil, err
	}
	out := make([]types.Reading, len(stored))
	for i, s := range stored {
		out[i] = s.Reading()
	}
	return out, nil
}

func scanReadings(rows *sql.Rows) ([]types.StoredReading, error) {
	var out []types.StoredReading
	for rows.Next() {
		var (
			rec         types.StoredReading
			ts          string
			temperature sql.NullFloat64
			humidity    sql.NullFloat64
		)
		if err := rows.Scan(&ts, &temperature, &humidity, &rec.Source); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		rec.Time = t
		if temperature.Valid {
			rec.Temperature = &temperature.Float64
		}
		if humidity.Valid {
			rec.Humidity = &humidity.Float64
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func validate(temperature *float64, humidity *float64) error {
	if err := validateHumidity(humidity); err != nil {
		return err
	}
	if temperature == nil && humidity == nil {
		return fmt.Errorf("reading has neither temperature nor humidity")
	}
	return nil
}

func validateHumidity(humidity *float64) error {
	if humidity != nil && (*humidity < 0 || *humidity > 100) {
		return fmt.Errorf("humidity_pct out of range: %f (must be 0-100)", *humidity)
	}
	return nil
}

func bounds(from, to time.Time) (string, string) {
	if to.IsZero() {
		to = maxTime
	}
	return formatTS(from), formatTS(to)
}

// formatTS stores the wall clock the reading was taken at; the offset is
// not kept.
func formatTS(t time.Time) string {
	return utils.WallClock(t).Format(tsLayout)
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
