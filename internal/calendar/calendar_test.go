package calendar

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"renttrack/internal/model"
)

func TestProjectGridShape(t *testing.T) {
	days := Project(nil, 2026, time.September)

	if len(days) != 42 {
		t.Fatalf("expected 42 cells, got %d", len(days))
	}

	// September 1, 2026 is a Tuesday; the grid starts the preceding Sunday.
	if got := days[0].Date; got.Weekday() != time.Sunday || got.Day() != 30 || got.Month() != time.August {
		t.Errorf("grid starts at %v, want Sunday Aug 30", got)
	}

	inMonth := 0
	for _, d := range days {
		if d.InMonth {
			inMonth++
		}
	}
	if inMonth != 30 {
		t.Errorf("expected 30 in-month cells for September, got %d", inMonth)
	}
}

func TestProjectPlacesTours(t *testing.T) {
	props := []model.Property{
		{ID: "p1", Address: "a", Status: model.Status{TourScheduled: "2026-09-04T15:00"}},
		{ID: "p2", Address: "b", Status: model.Status{TourScheduled: "2026-09-04T09:30"}},
		{ID: "p3", Address: "c", Status: model.Status{TourScheduled: "2026-10-01"}},
		{ID: "p4", Address: "d", Status: model.Status{TourScheduled: ""}},
		{ID: "p5", Address: "e", Status: model.Status{TourScheduled: "next tuesday-ish"}},
	}

	days := Project(props, 2026, time.September)

	var sept4 *Day
	for i := range days {
		if days[i].Date.Month() == time.September && days[i].Date.Day() == 4 {
			sept4 = &days[i]
		}
	}
	if sept4 == nil {
		t.Fatal("September 4 missing from grid")
	}
	if len(sept4.Tours) != 2 {
		t.Fatalf("expected 2 tours on Sept 4, got %d", len(sept4.Tours))
	}
	if sept4.Tours[0].ID != "p1" || sept4.Tours[1].ID != "p2" {
		t.Errorf("tours out of order: %s, %s", sept4.Tours[0].ID, sept4.Tours[1].ID)
	}

	// p3 is scheduled Oct 1, which still appears on September's trailing
	// grid as an out-of-month cell.
	total := 0
	for _, d := range days {
		total += len(d.Tours)
	}
	if total != 3 {
		t.Errorf("expected 3 placed tours across the grid, got %d", total)
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	props := []model.Property{
		{ID: "p1", Status: model.Status{TourScheduled: "2026-09-10"}},
	}
	before := props[0]

	_ = Project(props, 2026, time.September)

	if diff := cmp.Diff(before, props[0]); diff != "" {
		t.Errorf("input slice was mutated (-before +after):\n%s", diff)
	}
}
