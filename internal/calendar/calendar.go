// Package calendar projects scheduled tours onto a month grid.
package calendar

import (
	"time"

	"renttrack/internal/model"
)

// weeks is the fixed height of the grid so month views line up in the UI.
const weeks = 6

// Day is one cell of the projected grid.
type Day struct {
	Date    time.Time        `json:"date"`
	InMonth bool             `json:"inMonth"`
	Tours   []model.Property `json:"tours"`
}

// tourLayouts are the formats accepted for status.tourScheduled, tried in
// order. Values come from browser datetime-local inputs or hand-typed
// notes, so both zoned and naive stamps appear in practice.
var tourLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// Project maps the collection onto a Sunday-aligned six-week grid for the
// given month. A property lands on a cell when its scheduled tour falls
// on that calendar day. Pure: neither input is mutated.
func Project(props []model.Property, year int, month time.Month) []Day {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	type tour struct {
		day  time.Time
		prop model.Property
	}
	var tours []tour
	for _, p := range props {
		when, ok := parseTour(p.Status.TourScheduled)
		if !ok {
			continue
		}
		day := time.Date(when.Year(), when.Month(), when.Day(), 0, 0, 0, 0, time.UTC)
		tours = append(tours, tour{day: day, prop: p})
	}

	days := make([]Day, 0, weeks*7)
	for i := 0; i < weeks*7; i++ {
		date := start.AddDate(0, 0, i)
		cell := Day{Date: date, InMonth: date.Month() == month}
		for _, t := range tours {
			if t.day.Equal(date) {
				cell.Tours = append(cell.Tours, t.prop)
			}
		}
		days = append(days, cell)
	}
	return days
}

func parseTour(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range tourLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
