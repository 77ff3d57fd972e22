// Package sched wraps robfig/cron with named, idempotent job registration.
// The wrapper guarantees non-overlapping ticks per job: a tick still running
// when the next fires makes the scheduler skip the new one.
package sched

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	appLog "sigherald/internal/log"
)

// Scheduler owns the cron runner and the name → entry mapping.
type Scheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
		),
		entries: make(map[string]cron.EntryID),
	}
}

// Register schedules fn under name with a cron spec (e.g. "@every 1m",
// "30 3 * * *"). Re-registering a name replaces the prior registration.
func (s *Scheduler) Register(name, spec string, fn func()) error {
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
	id, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return err
	}
	s.entries[name] = id
	appLog.Info("scheduled job", "name", name, "spec", spec)
	return nil
}

// Start begins firing registered jobs in their own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// cronLogger adapts the cron library's logger to internal/log.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}
