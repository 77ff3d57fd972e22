package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "sigherald/internal/log"
	"sigherald/internal/model"
)

// The query windows here are minutes wide, so any event yielding more
// occurrences than this inside one window is malformed.
const defaultMaxOccurrencesPerEvent = 100

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone to which all occurrences will be
	// converted. If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive time window.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandOccurrences takes parsed events (typically for one or more feeds)
// and expands them into concrete meeting occurrences within the given time
// range. It handles:
//
//   - Single non-recurring events
//   - RRULE-based recurrence (DAILY/WEEKLY/MONTHLY/YEARLY, etc.)
//   - EXDATE for exception removal
//   - RECURRENCE-ID overrides
//
// All-day events are skipped: they have no meaningful "starting now"
// instant. Resulting occurrences are converted into DisplayLocation.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group base events and overrides by UID.
	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)

	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	out := make([]model.Occurrence, 0)

	for uid, baseEvents := range baseByUID {
		ov := overridesByUID[uid]
		for _, ev := range baseEvents {
			out = append(out, expandEvent(ev, ov, cfg)...)
		}
	}

	return out, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Occurrence {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg)
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Occurrence {
	var out []model.Occurrence

	// Quick range check: an occurrence only matters if its start falls in
	// the window (the window detector keys on start, not overlap).
	if ev.Start.Before(cfg.RangeStart) || ev.Start.After(cfg.RangeEnd) {
		return out
	}

	baseStart := ev.Start
	baseEnd := ev.End

	// Apply any override whose RECURRENCE-ID matches this start.
	if o, ok := findOverrideForStart(overrides, baseStart); ok {
		baseStart = o.Start
		baseEnd = o.End
		ev = o
	}

	out = append(out, makeOccurrence(ev, baseStart, baseEnd, cfg.DisplayLocation))
	return out
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Occurrence {
	out := make([]model.Occurrence, 0)

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out
	}

	// Ensure Dtstart is set to the event's DTSTART.
	r.DTStart(ev.Start)

	// Build a set so we can apply EXDATE.
	var set rrule.Set
	set.RRule(r)

	for _, ex := range ev.ExDates {
		// Best effort: align EXDATE location with event's start.
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Adjust range into the event's original location for Between().
	rangeStart := cfg.RangeStart.In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		appLog.Warn("expand: occurrence cap hit", "uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
	}

	dur := ev.End.Sub(ev.Start)
	for _, occStart := range occTimes {
		occEnd := occStart.Add(dur)

		baseEv := ev
		baseStart := occStart
		baseEnd := occEnd
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			baseStart = o.Start
			baseEnd = o.End
			baseEv = o
		}

		out = append(out, makeOccurrence(baseEv, baseStart, baseEnd, cfg.DisplayLocation))
	}

	return out
}

// findOverrideForStart finds an override event whose RECURRENCE-ID matches
// the given baseStart with exact time equality.
func findOverrideForStart(overrides []ParsedEvent, baseStart time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		// Align recurrence timestamp with base event's location.
		rid := ov.Recurrence.In(baseStart.Location())
		if rid.Equal(baseStart) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeOccurrence converts a (possibly overridden) ParsedEvent + specific
// start/end time into a model.Occurrence normalized into displayLoc.
func makeOccurrence(ev ParsedEvent, start, end time.Time, displayLoc *time.Location) model.Occurrence {
	return model.Occurrence{
		SourceID:      ev.Feed.ID,
		UID:           ev.UID,
		Title:         ev.Title,
		Start:         start.In(displayLoc),
		End:           end.In(displayLoc),
		ConferenceURL: ev.ConferenceURL,
		Attachments:   ev.Attachments,
	}
}
