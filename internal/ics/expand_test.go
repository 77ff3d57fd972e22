package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExpandSingleEventInsideWindow(t *testing.T) {
	start := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	ev := ParsedEvent{
		Feed:  Feed{ID: "main"},
		UID:   "ev1",
		Title: "[X] sig-foo: standup",
		Start: start,
		End:   start.Add(30 * time.Minute),
	}

	occs, err := ExpandOccurrences([]ParsedEvent{ev}, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      start.Add(-90 * time.Second),
		RangeEnd:        start.Add(180 * time.Second),
	})
	require.NoError(t, err)
	require.Len(t, occs, 1)
	require.Equal(t, "ev1", occs[0].UID)
	require.True(t, occs[0].Start.Equal(start))
}

func TestExpandSingleEventOutsideWindow(t *testing.T) {
	start := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	ev := ParsedEvent{UID: "ev1", Start: start, End: start.Add(time.Hour)}

	occs, err := ExpandOccurrences([]ParsedEvent{ev}, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      start.Add(10 * time.Minute),
		RangeEnd:        start.Add(20 * time.Minute),
	})
	require.NoError(t, err)
	require.Empty(t, occs)
}

func TestExpandWeeklyRecurrence(t *testing.T) {
	// Weekly standup; the query window sits two weeks after DTSTART.
	first := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	ev := ParsedEvent{
		Feed:     Feed{ID: "main"},
		UID:      "ev1",
		Title:    "[X] sig-foo: standup",
		Start:    first,
		End:      first.Add(30 * time.Minute),
		RawRRule: "FREQ=WEEKLY",
	}

	expected := first.Add(14 * 24 * time.Hour)
	occs, err := ExpandOccurrences([]ParsedEvent{ev}, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      expected.Add(-90 * time.Second),
		RangeEnd:        expected.Add(180 * time.Second),
	})
	require.NoError(t, err)
	require.Len(t, occs, 1)
	require.True(t, occs[0].Start.Equal(expected))
	// Same UID for every instance; the (UID, Start) pair is the identity.
	require.Equal(t, "ev1", occs[0].UID)
}

func TestExpandRespectsExdate(t *testing.T) {
	first := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	skipped := first.Add(7 * 24 * time.Hour)
	ev := ParsedEvent{
		UID:      "ev1",
		Start:    first,
		End:      first.Add(30 * time.Minute),
		RawRRule: "FREQ=WEEKLY",
		ExDates:  []time.Time{skipped},
	}

	occs, err := ExpandOccurrences([]ParsedEvent{ev}, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      skipped.Add(-90 * time.Second),
		RangeEnd:        skipped.Add(180 * time.Second),
	})
	require.NoError(t, err)
	require.Empty(t, occs)
}

func TestExpandAppliesOverride(t *testing.T) {
	first := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	second := first.Add(7 * 24 * time.Hour)
	movedTo := second.Add(30 * time.Minute)

	base := ParsedEvent{
		UID:      "ev1",
		Title:    "[X] sig-foo: standup",
		Start:    first,
		End:      first.Add(30 * time.Minute),
		RawRRule: "FREQ=WEEKLY",
	}
	rid := second
	override := ParsedEvent{
		UID:        "ev1",
		Title:      "[X] sig-foo: standup (moved)",
		Start:      movedTo,
		End:        movedTo.Add(30 * time.Minute),
		Recurrence: &rid,
		IsOverride: true,
	}

	occs, err := ExpandOccurrences([]ParsedEvent{base, override}, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      second.Add(-90 * time.Second),
		RangeEnd:        second.Add(180 * time.Second),
	})
	require.NoError(t, err)
	require.Len(t, occs, 1)
	require.True(t, occs[0].Start.Equal(movedTo))
	require.Equal(t, "[X] sig-foo: standup (moved)", occs[0].Title)
}

func TestExpandSkipsAllDayEvents(t *testing.T) {
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	ev := ParsedEvent{UID: "holiday", Start: start, End: start.Add(24 * time.Hour), AllDay: true}

	occs, err := ExpandOccurrences([]ParsedEvent{ev}, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      start.Add(-time.Minute),
		RangeEnd:        start.Add(time.Minute),
	})
	require.NoError(t, err)
	require.Empty(t, occs)
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	now := time.Now()
	_, err := ExpandOccurrences(nil, ExpandConfig{
		RangeStart: now,
		RangeEnd:   now.Add(-time.Minute),
	})
	require.Error(t, err)
}
