package types

import (
	"math"
	"time"
)

// Reading is one raw sample. Missing values are NaN.
type Reading struct {
	Time        time.Time
	Temperature float64
	Humidity    float64
}

// Telemetry is the MQTT payload published by a sensor gateway.
type Telemetry struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature *float64  `json:"temperature_c,omitempty"`
	Humidity    *float64  `json:"humidity_pct,omitempty"`
	Sequence    *int      `json:"sequence,omitempty"`
}

// StoredReading is a Reading as kept in (and returned from) the reading store.
type StoredReading struct {
	Time        time.Time `json:"time"`
	Temperature *float64  `json:"temperature_c"`
	Humidity    *float64  `json:"humidity_pct"`
	Source      string    `json:"source"`
}

func (s StoredReading) Reading() Reading {
	return Reading{Time: s.Time, Temperature: valueOrNaN(s.Temperature), Humidity: valueOrNaN(s.Humidity)}
}

// Nullable maps NaN to nil so the value survives JSON and SQL NULL.
func Nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func valueOrNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// Telemetry converts r into an MQTT payload. It reports false when r holds
// no value at all.
func (r Reading) Telemetry(sequence int) (Telemetry, bool) {
	t := Telemetry{
		Timestamp:   r.Time,
		Temperature: Nullable(r.Temperature),
		Humidity:    Nullable(r.Humidity),
		Sequence:    &sequence,
	}
	return t, t.Temperature != nil || t.Humidity != nil
}
