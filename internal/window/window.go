// Package window decides which calendar occurrences are "starting now".
package window

import (
	"time"

	"sigherald/internal/model"
)

// Detector applies the symmetric tolerance window around occurrence starts.
// Polling every minute with a ±90s tolerance means every occurrence is seen
// by at least one tick, usually two or three; exactly-once announcement is
// then the dedup store's job, not a single-shot timing property.
type Detector struct {
	tolerance time.Duration
}

func NewDetector(tolerance time.Duration) *Detector {
	return &Detector{tolerance: tolerance}
}

// Tolerance returns the half-width of the detection window.
func (d *Detector) Tolerance() time.Duration {
	return d.tolerance
}

// StartingNow reports whether occ's scheduled start is within the tolerance
// window of now: |start - now| <= tolerance, boundaries inclusive.
func (d *Detector) StartingNow(occ model.Occurrence, now time.Time) bool {
	diff := occ.Start.Sub(now)
	if diff < 0 {
		diff = -diff
	}
	return diff <= d.tolerance
}

// Detect filters candidates down to the occurrences starting now. The
// candidate list is expected to come from a fetch window that is a superset
// of [now-tolerance, now+tolerance]; the tolerance check here, not the fetch
// window, decides inclusion.
func (d *Detector) Detect(candidates []model.Occurrence, now time.Time) []model.Occurrence {
	var out []model.Occurrence
	for _, occ := range candidates {
		if d.StartingNow(occ, now) {
			out = append(out, occ)
		}
	}
	return out
}
