// Package acron provides an ambient, non-engine component that polls a
// rrecur.Recurrence on an interval and invokes a callback for occurrences
// that have newly elapsed. The engine itself (atime/rrecur) performs no
// I/O and schedules nothing; OccurrenceWatcher is one way an application
// can drive real wall-clock behavior from a Recurrence.
package acron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocron "github.com/go-co-op/gocron/v2"

	"github.com/calcore/recur/atime/rrecur"
)

// OccurrenceFunc is invoked once for each occurrence that elapses since the
// watcher's last poll.
type OccurrenceFunc func(watchID uuid.UUID, occurredAt time.Time)

// OccurrenceWatcher polls a *rrecur.Recurrence on a fixed interval and
// reports every occurrence that fell due since the previous poll. It owns
// no state inside the engine; rrecur.Recurrence stays pure and synchronous.
type OccurrenceWatcher struct {
	mu        sync.Mutex
	scheduler gocron.Scheduler
	watches   map[uuid.UUID]*watch
}

type watch struct {
	id        uuid.UUID
	rec       *rrecur.Recurrence
	lastPoll  time.Time
	onOccur   OccurrenceFunc
	jobID     uuid.UUID
}

// NewOccurrenceWatcher creates a watcher backed by its own gocron scheduler
// running in UTC.
func NewOccurrenceWatcher() (*OccurrenceWatcher, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("acron: failed to create scheduler: %w", err)
	}
	return &OccurrenceWatcher{
		scheduler: sched,
		watches:   make(map[uuid.UUID]*watch),
	}, nil
}

// Start begins running the scheduler's jobs.
func (w *OccurrenceWatcher) Start() { w.scheduler.Start() }

// Shutdown stops the scheduler and releases its jobs.
func (w *OccurrenceWatcher) Shutdown() error { return w.scheduler.Shutdown() }

// Watch registers rec to be polled every interval; onOccur fires once per
// elapsed occurrence, in order, each time the watcher polls. Polling begins
// from the moment Watch is called; occurrences before that are not
// reported.
func (w *OccurrenceWatcher) Watch(ctx context.Context, rec *rrecur.Recurrence, interval time.Duration, onOccur OccurrenceFunc) (uuid.UUID, error) {
	if rec == nil {
		return uuid.UUID{}, fmt.Errorf("acron: recurrence is nil")
	}
	if interval <= 0 {
		return uuid.UUID{}, fmt.Errorf("acron: interval must be positive")
	}

	id := uuid.New()
	wch := &watch{id: id, rec: rec, lastPoll: time.Now().UTC(), onOccur: onOccur}

	job, err := w.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(w.poll, id),
		gocron.WithContext(ctx),
	)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("acron: failed to schedule watch: %w", err)
	}
	wch.jobID = uuid.UUID(job.ID())

	w.mu.Lock()
	w.watches[id] = wch
	w.mu.Unlock()

	return id, nil
}

// Unwatch removes a previously registered watch, if present.
func (w *OccurrenceWatcher) Unwatch(id uuid.UUID) error {
	w.mu.Lock()
	wch, ok := w.watches[id]
	if ok {
		delete(w.watches, id)
	}
	w.mu.Unlock()

	if !ok {
		return nil
	}
	return w.scheduler.RemoveJob(wch.jobID)
}

// poll is the gocron task body: it reports every occurrence between the
// watch's last poll and now, then advances lastPoll.
func (w *OccurrenceWatcher) poll(id uuid.UUID) {
	w.mu.Lock()
	wch, ok := w.watches[id]
	w.mu.Unlock()
	if !ok {
		return
	}

	now := time.Now().UTC()
	occurrences := wch.rec.TimesInInterval(wch.lastPoll, now)
	for _, t := range occurrences {
		if !t.After(wch.lastPoll) {
			continue // already reported by the previous poll's inclusive upper bound
		}
		if wch.onOccur != nil {
			wch.onOccur(id, t)
		}
	}

	w.mu.Lock()
	wch.lastPoll = now
	w.mu.Unlock()
}
