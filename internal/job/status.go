package job

import (
	"sync"
	"time"
)

// TickStatus is the outcome of a job's most recent tick, kept for the
// status server.
type TickStatus struct {
	Job      string    `json:"job"`
	LastRun  time.Time `json:"last_run"`
	Handled  int       `json:"handled"`
	Notified int       `json:"notified"`
	Errors   int       `json:"errors"`
	LastErr  string    `json:"last_error,omitempty"`
}

// StatusBoard collects per-job tick outcomes. Ticks run serialized, but the
// status server reads concurrently, hence the lock.
type StatusBoard struct {
	mu    sync.RWMutex
	byJob map[string]TickStatus
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{byJob: make(map[string]TickStatus)}
}

func (b *StatusBoard) Set(st TickStatus) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byJob[st.Job] = st
}

func (b *StatusBoard) Snapshot() map[string]TickStatus {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]TickStatus, len(b.byJob))
	for k, v := range b.byJob {
		out[k] = v
	}
	return out
}
