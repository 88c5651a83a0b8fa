// Command recurdemo wires the recurrence engine, its ambient watcher, and
// the tunables loader together end to end: load settings, build a rule,
// and print the next few occurrences as they elapse.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/calcore/recur/acron"
	"github.com/calcore/recur/alog"
	"github.com/calcore/recur/atime/rrecur"
	"github.com/calcore/recur/config"
)

func main() {
	tunables := &config.Tunables{}
	if len(os.Args) > 1 {
		loaded, err := config.LoadTunables(os.Args[1])
		if err != nil {
			log.Fatalf("recurdemo: failed to load tunables: %v", err)
		}
		tunables = loaded
	}
	if err := tunables.Apply(); err != nil {
		log.Fatalf("recurdemo: failed to apply tunables: %v", err)
	}

	anchor := time.Now().UTC()
	rec := rrecur.NewRecurrence(anchor, false)

	rule, err := rrecur.NewRecurrenceRule(rrecur.RecurrenceRuleOptions{
		Frequency:    1,
		Period:       rrecur.PeriodSecondly,
		StartInstant: anchor,
		Termination:  rrecur.UntilCount(5),
	})
	if err != nil {
		log.Fatalf("recurdemo: failed to build rule: %v", err)
	}
	rec.AddRRule(rule)

	fmt.Println(rule.Describe())

	watcher, err := acron.NewOccurrenceWatcher()
	if err != nil {
		log.Fatalf("recurdemo: failed to create watcher: %v", err)
	}
	watcher.Start()
	defer func() { _ = watcher.Shutdown() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	seen := 0

	_, err = watcher.Watch(ctx, rec, 500*time.Millisecond, func(_ uuid.UUID, occurredAt time.Time) {
		seen++
		alog.LOGGER(alog.LOGGER_APP).Info().Time("occurredAt", occurredAt).Msg("recurdemo: occurrence elapsed")
		if seen >= 5 {
			close(done)
		}
	})
	if err != nil {
		log.Fatalf("recurdemo: failed to watch recurrence: %v", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
}
