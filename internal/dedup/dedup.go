// Package dedup keeps a bounded, durable record of which meeting occurrences
// have already been announced, so repeated polling around a meeting's start
// produces exactly one notification.
//
// Records live in the shared property store, which has a hard slot quota.
// Retention adapts to utilization: the fuller the store, the shorter records
// are kept. Without that, steady-state growth would exhaust the quota and
// make every subsequent write fail, and a record that cannot be written is
// indistinguishable on the next tick from "never notified" — a duplicate
// announcement.
package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	appLog "sigherald/internal/log"
	"sigherald/internal/model"
	"sigherald/internal/props"
)

// keyPrefix namespaces dedup records inside the shared store.
const keyPrefix = "notified/"

// Retention horizons by utilization band, and the fixed horizon for the
// daily maintenance pass.
const (
	horizonNormal     = 24 * time.Hour
	horizonModerate   = 8 * time.Hour
	horizonAggressive = 4 * time.Hour
	horizonDaily      = 6 * time.Hour
)

// Record is the persisted marker for one announced occurrence. Title and
// times are diagnostics; existence of the key is what suppresses duplicates.
type Record struct {
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	WrittenAt time.Time `json:"written_at"`
}

// Store wraps the shared property store with dedup semantics. It owns every
// key under its prefix; no other component touches them.
type Store struct {
	props props.Store
	quota int
}

func NewStore(ps props.Store, quota int) *Store {
	return &Store{props: ps, quota: quota}
}

// Key derives the stable record key for an occurrence. Identity is
// (UID, scheduled start): a recurring series yields a fresh key per instance.
func Key(occ model.Occurrence) string {
	return fmt.Sprintf("%s%s@%d", keyPrefix, occ.UID, occ.Start.UTC().Unix())
}

// HasNotified reports whether a record for key currently exists.
func (s *Store) HasNotified(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.props.Get(ctx, key)
	return ok, err
}

// RecordNotified upserts the record for an announced occurrence. Writing
// the same key again is a full overwrite, so repeated calls are idempotent.
func (s *Store) RecordNotified(ctx context.Context, key string, occ model.Occurrence, now time.Time) error {
	rec := Record{
		Title:     occ.Title,
		Start:     occ.Start,
		WrittenAt: now.UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.props.Set(ctx, key, string(data))
}

// CleanupResult summarizes one cleanup pass.
type CleanupResult struct {
	Horizon   time.Duration
	Deleted   int
	Corrupted int
	// Emergency counts records evicted by the oldest-first emergency pass.
	Emergency int
	Remaining int
}

// Cleanup deletes dedup records older than a retention horizon chosen by
// current load:
//
//	count >= quota-5  -> 4h  (aggressive)
//	count >= 3/5 quota -> 8h  (moderate)
//	otherwise          -> 24h (normal)
//
// A record whose value fails to parse is deleted regardless of age. After
// the horizon pass, if quota-2 or more records remain, the oldest are
// evicted until quota-10 remain, guaranteeing write headroom within the
// same tick. At the reference quota of 50 the bands are 45/30 and 48→40.
func (s *Store) Cleanup(ctx context.Context, now time.Time) (CleanupResult, error) {
	records, corrupted, err := s.load(ctx)
	if err != nil {
		return CleanupResult{}, err
	}

	res := CleanupResult{Corrupted: len(corrupted)}

	// Unparseable records are dead weight in a quota-bound store.
	for _, key := range corrupted {
		if err := s.props.Delete(ctx, key); err != nil {
			return res, err
		}
		res.Deleted++
	}

	switch {
	case len(records) >= s.quota-5:
		res.Horizon = horizonAggressive
	case len(records) >= s.quota*3/5:
		res.Horizon = horizonModerate
	default:
		res.Horizon = horizonNormal
	}

	remaining := records[:0]
	for _, r := range records {
		if now.Sub(r.rec.WrittenAt) > res.Horizon {
			if err := s.props.Delete(ctx, r.key); err != nil {
				return res, err
			}
			res.Deleted++
			continue
		}
		remaining = append(remaining, r)
	}

	// Emergency pass: horizon-based deletion was not enough, evict oldest
	// first until the store has headroom again.
	if len(remaining) >= s.quota-2 {
		sort.Slice(remaining, func(i, j int) bool {
			return remaining[i].rec.WrittenAt.Before(remaining[j].rec.WrittenAt)
		})
		target := s.quota - 10
		for len(remaining) > target {
			victim := remaining[0]
			if err := s.props.Delete(ctx, victim.key); err != nil {
				return res, err
			}
			appLog.Warn("dedup emergency eviction",
				"key", victim.key,
				"title", victim.rec.Title,
				"written_at", victim.rec.WrittenAt.Format(time.RFC3339),
			)
			remaining = remaining[1:]
			res.Deleted++
			res.Emergency++
		}
	}

	res.Remaining = len(remaining)
	return res, nil
}

// Maintain is the daily maintenance pass: a fixed 6-hour horizon regardless
// of load, independent of the adaptive cleanup. Corrupted records are
// purged here too.
func (s *Store) Maintain(ctx context.Context, now time.Time) (CleanupResult, error) {
	records, corrupted, err := s.load(ctx)
	if err != nil {
		return CleanupResult{}, err
	}

	res := CleanupResult{Horizon: horizonDaily, Corrupted: len(corrupted)}

	for _, key := range corrupted {
		if err := s.props.Delete(ctx, key); err != nil {
			return res, err
		}
		res.Deleted++
	}

	kept := 0
	for _, r := range records {
		if now.Sub(r.rec.WrittenAt) > horizonDaily {
			if err := s.props.Delete(ctx, r.key); err != nil {
				return res, err
			}
			res.Deleted++
			continue
		}
		kept++
	}

	res.Remaining = kept
	return res, nil
}

// Utilization returns the occupied slot count of the whole shared store and
// its quota. The quota is shared with other persisted state, so the overflow
// warning considers every slot, not just dedup's own records.
func (s *Store) Utilization(ctx context.Context) (used, quota int, err error) {
	used, err = s.props.Count(ctx)
	return used, s.quota, err
}

type keyedRecord struct {
	key string
	rec Record
}

// load reads every dedup-owned record, separating parseable records from
// corrupted keys.
func (s *Store) load(ctx context.Context) ([]keyedRecord, []string, error) {
	all, err := s.props.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	var records []keyedRecord
	var corrupted []string
	for key, value := range all {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(value), &rec); err != nil || rec.WrittenAt.IsZero() {
			corrupted = append(corrupted, key)
			continue
		}
		records = append(records, keyedRecord{key: key, rec: rec})
	}
	return records, corrupted, nil
}
