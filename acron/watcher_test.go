package acron

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calcore/recur/atime/rrecur"
)

func TestOccurrenceWatcher_ReportsElapsedOccurrences(t *testing.T) {
	anchor := time.Now().UTC()
	rec := rrecur.NewRecurrence(anchor, false)
	rr, err := rrecur.NewRecurrenceRule(rrecur.RecurrenceRuleOptions{
		Frequency:    1,
		Period:       rrecur.PeriodSecondly,
		StartInstant: anchor,
		Termination:  rrecur.UntilCount(3),
	})
	require.NoError(t, err)
	rec.AddRRule(rr)

	w, err := NewOccurrenceWatcher()
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []time.Time
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id, err := w.Watch(ctx, rec, 50*time.Millisecond, func(_ uuid.UUID, t time.Time) {
		mu.Lock()
		seen = append(seen, t)
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.UUID{}, id)

	w.Start()
	defer func() { _ = w.Shutdown() }()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 2*time.Second, 50*time.Millisecond)
}
