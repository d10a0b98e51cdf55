package utils

import (
	"fmt"
	"strings"
	"time"
)

// dayFirstLayouts accept one- or two-digit day and month fields.
var dayFirstLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDayFirst parses a date or timestamp written day-first (19/12/2024,
// 19-12-2024 14:00) or in ISO order. A zone offset is dropped, not applied:
// the result carries the written wall clock in UTC (see WallClock).
func ParseDayFirst(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dayFirstLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return WallClock(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (expected dd/mm/yyyy[ hh:mm[:ss]] or yyyy-mm-dd)", s)
}

// DayOf truncates t to its calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WallClock keeps t's local date and clock reading and relabels it as UTC,
// so 14:00-03:00 stays 14:00. Daily sampling works on wall time.
func WallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), time.UTC)
}
