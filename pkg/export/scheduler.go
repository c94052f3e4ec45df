package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/tabular/pkg/telemetry/logging"

	"github.com/robfig/cron/v3"
)

// Scheduler writes scheduled exports to their output files using cron
// expressions from the catalog.
//
// Common cron expressions:
//   - "0 2 * * *"    - Daily at 2 AM
//   - "*/15 * * * *" - Every 15 minutes
//   - "@hourly"      - Every hour
type Scheduler struct {
	service *Service
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
	ctx     context.Context
	entries map[string]cron.EntryID
}

// NewScheduler creates a scheduler for service's catalog.
func NewScheduler(service *Service) *Scheduler {
	return &Scheduler{
		service: service,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "export.scheduler"),
		entries: make(map[string]cron.EntryID),
	}
}

// Start schedules every definition that has a schedule and starts the cron
// runner. It stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.ctx = ctx

	if err := s.scheduleLocked(); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("export scheduler started", "jobs", len(s.entries))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Reschedule replaces the jobs with the schedules of the current catalog.
// Call it after the catalog is reloaded.
func (s *Scheduler) Reschedule() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	for name, id := range s.entries {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
	if err := s.scheduleLocked(); err != nil {
		return err
	}
	s.logger.Info("export schedules reloaded", "jobs", len(s.entries))
	return nil
}

func (s *Scheduler) scheduleLocked() error {
	for _, def := range s.service.Catalog().Scheduled() {
		name := def.Name
		id, err := s.cron.AddFunc(def.Schedule, func() {
			s.runJob(name)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule export %q (%q): %w", name, def.Schedule, err)
		}
		s.entries[name] = id
		s.logger.Debug("export scheduled", "export", name, "schedule", def.Schedule)
	}
	return nil
}

// runJob executes one scheduled export.
func (s *Scheduler) runJob(name string) {
	ctx := logging.WithTrigger(s.ctx, "schedule")
	ctx = logging.WithExport(ctx, name)

	res, err := s.service.WriteFile(ctx, name, "")
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled export failed", "error", err)
		return
	}
	s.logger.DebugContext(ctx, "scheduled export completed", "rows", res.Rows)
}

// Stop stops the scheduler and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		done := s.cron.Stop()
		<-done.Done()
		s.running = false
		s.logger.Info("export scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next run time of the named export, or nil if it is
// not scheduled.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[name]
	if !ok {
		return nil
	}
	next := s.cron.Entry(id).Next
	return &next
}

// Jobs returns the names of the scheduled exports.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}
