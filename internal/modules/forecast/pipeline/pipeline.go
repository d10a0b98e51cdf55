// Package pipeline turns a raw, irregular reading series into the daily
// supervised-learning table: one sampled reading per calendar day, the next
// day's temperature as target, trailing 30-day extrema and expanding means
// per calendar month and per day-of-year.
package pipeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"tempcast/internal/modules/weather/types"
	"tempcast/internal/utils"
)

// WindowSize is the trailing window, in daily records, of MonthMax/MonthMin.
const WindowSize = 30

var (
	ErrNoReadings = errors.New("no readings")
	ErrNoSamples  = errors.New("no reading at the daily sample time")
	ErrTooFewDays = errors.New("need at least two sampled days")
)

type Options struct {
	// SampleTime is the time of day (offset from midnight) of the daily sample.
	SampleTime time.Duration
	// Tolerance widens the sample window to [SampleTime, SampleTime+Tolerance].
	Tolerance time.Duration
}

func DefaultOptions() Options {
	return Options{SampleTime: 14 * time.Hour}
}

// Build runs the whole pipeline. The returned records are one per calendar
// day, in date order, and exclude the final day (it has no target).
func Build(readings []types.Reading, opts Options) ([]Record, error) {
	if len(readings) == 0 {
		return nil, ErrNoReadings
	}

	filled := ForwardFillReadings(readings)
	daily, err := SampleDaily(filled, opts)
	if err != nil {
		return nil, err
	}
	if len(daily) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewDays, len(daily))
	}

	records := AddTarget(daily)
	AddRollingExtrema(records, WindowSize)
	AddMonthlyAvg(records)
	AddDayOfYearAvg(records)
	return records, nil
}

// ForwardFillReadings carries the last known temperature and humidity over
// missing values, in input order. Leading gaps stay NaN.
func ForwardFillReadings(readings []types.Reading) []types.Reading {
	out := make([]types.Reading, len(readings))
	lastTemp, lastHum := math.NaN(), math.NaN()
	for i, r := range readings {
		if math.IsNaN(r.Temperature) {
			r.Temperature = lastTemp
		} else {
			lastTemp = r.Temperature
		}
		if math.IsNaN(r.Humidity) {
			r.Humidity = lastHum
		} else {
			lastHum = r.Humidity
		}
		out[i] = r
	}
	return out
}

// SampleDaily keeps, for every calendar day, the first reading inside the
// sample window. Per column the first defined value wins. Days between the
// first and last sampled day without a sample repeat the previous day and
// are marked Imputed.
func SampleDaily(readings []types.Reading, opts Options) ([]Record, error) {
	sorted := make([]types.Reading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	byDay := make(map[time.Time]*Record)
	var days []time.Time
	for _, r := range sorted {
		if !inWindow(r.Time, opts) {
			continue
		}
		day := utils.DayOf(r.Time)
		rec, ok := byDay[day]
		if !ok {
			rec = &Record{Date: day, Temperature: math.NaN(), Humidity: math.NaN()}
			byDay[day] = rec
			days = append(days, day)
		}
		if math.IsNaN(rec.Temperature) {
			rec.Temperature = r.Temperature
		}
		if math.IsNaN(rec.Humidity) {
			rec.Humidity = r.Humidity
		}
	}
	if len(days) == 0 {
		return nil, ErrNoSamples
	}

	first, last := days[0], days[len(days)-1]
	out := make([]Record, 0, int(last.Sub(first).Hours()/24)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if rec, ok := byDay[day]; ok {
			out = append(out, *rec)
			continue
		}
		prev := out[len(out)-1]
		out = append(out, Record{
			Date:        day,
			Temperature: prev.Temperature,
			Humidity:    prev.Humidity,
			Imputed:     true,
		})
	}
	return out, nil
}

// inWindow compares the reading's own wall clock, whatever its location.
func inWindow(t time.Time, opts Options) bool {
	hh, mm, ss := t.Clock()
	offset := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute +
		time.Duration(ss)*time.Second + time.Duration(t.Nanosecond())
	return offset >= opts.SampleTime && offset <= opts.SampleTime+opts.Tolerance
}

// AddTarget sets each record's Target to the next record's temperature and
// drops the last record.
func AddTarget(daily []Record) []Record {
	if len(daily) == 0 {
		return nil
	}
	out := make([]Record, len(daily)-1)
	for i := range out {
		out[i] = daily[i]
		out[i].Target = daily[i+1].Temperature
	}
	return out
}

// AddRollingExtrema fills MonthMax, MonthMin and MonthDayMax from the
// trailing window ending at (and including) each record. A window that is
// not full, or holds an undefined temperature, yields NaN.
func AddRollingExtrema(records []Record, window int) {
	for i := range records {
		records[i].MonthMax, records[i].MonthMin = math.NaN(), math.NaN()
		if i+1 >= window {
			records[i].MonthMax, records[i].MonthMin = extrema(records[i+1-window : i+1])
		}
		records[i].MonthDayMax = records[i].MonthMax / records[i].Temperature
	}
}

func extrema(window []Record) (float64, float64) {
	hi, lo := math.Inf(-1), math.Inf(1)
	for _, r := range window {
		if math.IsNaN(r.Temperature) {
			return math.NaN(), math.NaN()
		}
		hi = math.Max(hi, r.Temperature)
		lo = math.Min(lo, r.Temperature)
	}
	return hi, lo
}

// AddMonthlyAvg sets MonthlyAvg to the running mean of temperature since the
// start of the record's calendar month.
func AddMonthlyAvg(records []Record) {
	means := expandingMean(records, monthKey)
	for i := range records {
		records[i].MonthlyAvg = means[i]
	}
}

// AddDayOfYearAvg sets DayOfYearAvg to the running mean of temperature over
// all records so far that share the record's day-of-year.
func AddDayOfYearAvg(records []Record) {
	means := expandingMean(records, dayOfYearKey)
	for i := range records {
		records[i].DayOfYearAvg = means[i]
	}
}

func monthKey(r Record) int {
	return r.Date.Year()*12 + int(r.Date.Month()) - 1
}

func dayOfYearKey(r Record) int {
	return r.Date.YearDay()
}

// expandingMean is a grouped cumulative mean in record order. Undefined
// temperatures are skipped; a group with nothing defined yet gives NaN.
func expandingMean(records []Record, key func(Record) int) []float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	out := make([]float64, len(records))
	for i, r := range records {
		k := key(r)
		if !math.IsNaN(r.Temperature) {
			sums[k] += r.Temperature
			counts[k]++
		}
		if counts[k] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sums[k] / float64(counts[k])
	}
	return out
}
