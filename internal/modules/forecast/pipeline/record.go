package pipeline

import (
	"math"
	"time"
)

// Record is one row of the daily table. Undefined values are NaN.
type Record struct {
	Date         time.Time
	Temperature  float64
	Humidity     float64
	Imputed      bool
	Target       float64
	MonthMax     float64
	MonthMin     float64
	MonthDayMax  float64
	MonthlyAvg   float64
	DayOfYearAvg float64
}

// Predictors names the model inputs, in the order Features returns them.
var Predictors = []string{"temperature", "humidity", "month_max", "monthly_avg", "day_of_year_avg"}

func (r Record) Features() []float64 {
	return []float64{r.Temperature, r.Humidity, r.MonthMax, r.MonthlyAvg, r.DayOfYearAvg}
}

func (r *Record) columns() []*float64 {
	return []*float64{
		&r.Temperature, &r.Humidity, &r.Target,
		&r.MonthMax, &r.MonthMin, &r.MonthDayMax,
		&r.MonthlyAvg, &r.DayOfYearAvg,
	}
}

// Complete reports whether every numeric column is defined.
func (r Record) Complete() bool {
	for _, v := range r.columns() {
		if math.IsNaN(*v) {
			return false
		}
	}
	return true
}

// FillForward returns a copy of records with every undefined value replaced
// by the last defined value of the same column above it.
func FillForward(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	for i := 1; i < len(out); i++ {
		prev := out[i-1].columns()
		for c, v := range out[i].columns() {
			if math.IsNaN(*v) {
				*v = *prev[c]
			}
		}
	}
	return out
}

// Split partitions records into those dated on or before cutoff and the rest.
func Split(records []Record, cutoff time.Time) (train, test []Record) {
	for _, r := range records {
		if r.Date.After(cutoff) {
			test = append(test, r)
		} else {
			train = append(train, r)
		}
	}
	return train, test
}
