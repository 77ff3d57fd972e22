// Package job contains the two per-tick orchestrators. A tick runs to
// completion, contains failures at the per-item boundary, and keeps no
// cross-tick state beyond the dedup store.
package job

import (
	"context"
	"fmt"
	"time"

	"sigherald/internal/config"
	"sigherald/internal/dedup"
	appLog "sigherald/internal/log"
	"sigherald/internal/match"
	"sigherald/internal/model"
	"sigherald/internal/notify"
	"sigherald/internal/window"
)

// CalendarSource lists occurrences whose scheduled start falls inside a
// query window.
type CalendarSource interface {
	ListUpcoming(ctx context.Context, windowStart, windowEnd time.Time) ([]model.Occurrence, error)
}

// Calendar announces meetings that are starting now. Per tick it fetches a
// superset window of candidates, applies the tolerance check, matches titles
// against the SIG table, suppresses already-announced occurrences through
// the dedup store, dispatches to the resolved channels, and records the
// announcement.
type Calendar struct {
	cfg        *config.Config
	source     CalendarSource
	table      *match.Table
	detector   *window.Detector
	store      *dedup.Store
	resolver   *notify.Resolver
	dispatcher *notify.Dispatcher
	board      *StatusBoard

	// ticks counts completed ticks for the every-Nth cleanup cadence.
	ticks int
}

func NewCalendar(
	cfg *config.Config,
	source CalendarSource,
	store *dedup.Store,
	dispatcher *notify.Dispatcher,
	board *StatusBoard,
) *Calendar {
	return &Calendar{
		cfg:        cfg,
		source:     source,
		table:      match.NewTable(cfg),
		detector:   window.NewDetector(time.Duration(cfg.ToleranceSeconds) * time.Second),
		store:      store,
		resolver:   notify.NewResolver(cfg),
		dispatcher: dispatcher,
		board:      board,
	}
}

// Run executes one tick at the current instant.
func (j *Calendar) Run(ctx context.Context) error {
	return j.RunAt(ctx, time.Now())
}

// RunAt executes one tick at the given instant. Errors on individual
// occurrences are contained and reported; only a failure before any side
// effect (missing config, candidate fetch) aborts the tick.
func (j *Calendar) RunAt(ctx context.Context, now time.Time) error {
	st := TickStatus{Job: "calendar", LastRun: now}
	defer func() { j.board.Set(st) }()

	// Missing config is fatal for the tick, detected before any side effect.
	if err := j.cfg.ValidateCalendar(); err != nil {
		st.LastErr = err.Error()
		st.Errors++
		appLog.Error("calendar tick aborted", err)
		return err
	}

	tolerance := j.detector.Tolerance()
	windowStart := now.Add(-tolerance)
	windowEnd := now.Add(time.Duration(j.cfg.FetchAheadSeconds) * time.Second)

	candidates, err := j.source.ListUpcoming(ctx, windowStart, windowEnd)
	if err != nil {
		st.LastErr = err.Error()
		st.Errors++
		j.dispatcher.ReportError(ctx, "calendar fetch failed", err)
		return err
	}

	starting := j.detector.Detect(candidates, now)
	appLog.Debug("calendar tick",
		"now", now.Format(time.RFC3339),
		"candidates", len(candidates),
		"starting", len(starting),
	)

	for _, occ := range starting {
		if err := j.announce(ctx, occ, now); err != nil {
			st.Errors++
			st.LastErr = err.Error()
			continue
		}
		st.Notified++
	}
	st.Handled = len(starting)

	j.ticks++
	if j.ticks%j.cfg.CleanupEveryTicks == 0 {
		j.maintainStore(ctx, now)
	}

	return nil
}

// announce handles a single starting occurrence: match, dedup check,
// dispatch, record. Returns an error only for reporting purposes; the
// caller continues with the next occurrence either way.
func (j *Calendar) announce(ctx context.Context, occ model.Occurrence, now time.Time) error {
	// Titles are authored to start with the SIG prefix; no match means the
	// meeting has no configured destination and is silently skipped.
	m, ok := j.table.Match(occ.Title, match.ModePrefix)
	if !ok {
		appLog.Debug("calendar: no configured prefix", "title", occ.Title)
		return nil
	}

	key := dedup.Key(occ)
	notified, err := j.store.HasNotified(ctx, key)
	if err != nil {
		j.dispatcher.ReportError(ctx, fmt.Sprintf("dedup lookup failed for %q", occ.Title), err)
		return err
	}
	if notified {
		appLog.Debug("calendar: already announced", "title", occ.Title, "key", key)
		return nil
	}

	text := notify.FormatMeetingStart(occ, j.cfg.Location())

	// Dispatch to every destination before marking the occurrence notified.
	// A failure partway through the list still marks it: one duplicate-free
	// partial delivery beats spamming every channel on the next tick.
	var dispatchErr error
	for _, dest := range j.resolver.Resolve(m.SIG) {
		if err := j.dispatcher.Dispatch(ctx, dest, text); err != nil {
			dispatchErr = err
			j.dispatcher.ReportError(ctx,
				fmt.Sprintf("announcement for %q failed for channel %s", occ.Title, dest.Name), err)
		}
	}

	if err := j.store.RecordNotified(ctx, key, occ, now); err != nil {
		// The record could not be written: the next tick will see this
		// occurrence as never-announced. Surface loudly.
		j.dispatcher.ReportError(ctx,
			fmt.Sprintf("failed to record announcement of %q; a duplicate is possible", occ.Title), err)
		return err
	}

	appLog.Info("calendar: announced meeting",
		"title", occ.Title,
		"start", occ.Start.Format(time.RFC3339),
		"key", key,
	)
	return dispatchErr
}

// maintainStore runs the adaptive cleanup and warns when the shared store
// crosses the high-water mark.
func (j *Calendar) maintainStore(ctx context.Context, now time.Time) {
	res, err := j.store.Cleanup(ctx, now)
	if err != nil {
		j.dispatcher.ReportError(ctx, "dedup cleanup failed", err)
		return
	}
	appLog.Info("dedup cleanup",
		"horizon", res.Horizon,
		"deleted", res.Deleted,
		"corrupted", res.Corrupted,
		"emergency", res.Emergency,
		"remaining", res.Remaining,
	)

	used, quota, err := j.store.Utilization(ctx)
	if err != nil {
		appLog.Error("dedup utilization check failed", err)
		return
	}
	if used*5 >= quota*4 {
		j.dispatcher.ReportWarning(ctx,
			fmt.Sprintf("property store at %d/%d slots; adaptive cleanup is shortening retention", used, quota))
	}
}
