// Package schedule raises notifications on cron schedules defined in config.
package schedule

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/colonyops/toaster/internal/core/config"
	"github.com/colonyops/toaster/internal/core/eventbus"
)

// Publisher receives fired schedules. *eventbus.EventBus satisfies it.
type Publisher interface {
	PublishScheduleFired(eventbus.ScheduleFiredPayload)
}

// Entry describes a registered schedule.
type Entry struct {
	Name string
	Spec string
	Next time.Time
}

// Scheduler runs config schedules on a cron and publishes schedule.fired
// for each firing. Schedules are keyed by name; Reload swaps the whole set.
type Scheduler struct {
	pub Publisher
	log zerolog.Logger
	loc *time.Location

	mu      sync.Mutex
	cron    *cron.Cron
	jobs    map[string]config.Schedule
	entries map[string]cron.EntryID
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithLocation sets the time zone schedules are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// New creates a stopped scheduler publishing to pub.
func New(pub Publisher, opts ...Option) *Scheduler {
	s := &Scheduler{
		pub:     pub,
		log:     zerolog.Nop(),
		loc:     time.Local,
		jobs:    make(map[string]config.Schedule),
		entries: make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cron = cron.New(cron.WithParser(config.CronParser), cron.WithLocation(s.loc))
	return s
}

// Reload replaces every registered schedule with jobs. Jobs whose spec does
// not parse are skipped and reported in the returned error; the rest are
// registered.
func (s *Scheduler) Reload(jobs []config.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, id := range s.entries {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
	clear(s.jobs)

	var errs []error
	for _, job := range jobs {
		id, err := s.cron.AddFunc(job.Spec, func() { s.fire(job) })
		if err != nil {
			errs = append(errs, fmt.Errorf("schedule %q: %w", job.Name, err))
			continue
		}
		s.entries[job.Name] = id
		s.jobs[job.Name] = job

		s.log.Debug().
			Str("schedule", job.Name).
			Str("spec", job.Spec).
			Msg("schedule registered")
	}

	return errors.Join(errs...)
}

// Start begins running schedules in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fire publishes the named schedule immediately, outside its cron timing.
func (s *Scheduler) Fire(name string) bool {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()

	if ok {
		s.fire(job)
	}
	return ok
}

// Entries returns the registered schedules sorted by name. Next is zero
// until the scheduler has been started.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for name, id := range s.entries {
		out = append(out, Entry{
			Name: name,
			Spec: s.jobs[name].Spec,
			Next: s.cron.Entry(id).Next,
		})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

func (s *Scheduler) fire(job config.Schedule) {
	s.log.Debug().Str("schedule", job.Name).Msg("schedule fired")
	s.pub.PublishScheduleFired(eventbus.ScheduleFiredPayload{
		Schedule: job,
		FiredAt:  time.Now(),
	})
}
