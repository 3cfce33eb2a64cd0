// Package scheduler enqueues maintenance tasks on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/locallibrary/internal/settingsstore"
	"github.com/mrlokans/locallibrary/internal/tasks"
)

// Enqueuer adds tasks to the queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Job statuses recorded in the settings store.
const (
	StatusQueued = "queued"
	StatusFailed = "failed"
)

// MaintenanceScheduler enqueues every enabled maintenance job on its
// schedule. Jobs run on the task queue, not on the cron goroutine.
type MaintenanceScheduler struct {
	settings      *settingsstore.SettingsStore
	queue         Enqueuer
	retentionDays int

	cron       *cron.Cron
	entries    map[string]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a new scheduler instance.
func NewMaintenanceScheduler(settings *settingsstore.SettingsStore, queue Enqueuer, retentionDays int) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		settings:      settings,
		queue:         queue,
		retentionDays: retentionDays,
		entries:       make(map[string]cron.EntryID),
	}
}

// Start schedules every enabled job. Starting a running scheduler is a no-op.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	c := cron.New(cron.WithParser(settingsstore.CronParser()))
	entries := make(map[string]cron.EntryID)

	for _, job := range s.settings.Jobs() {
		cfg, err := s.settings.JobConfig(job.Name)
		if err != nil {
			return err
		}
		if !cfg.Enabled {
			slog.Info("maintenance job disabled", "job", job.Name)
			continue
		}

		name := job.Name
		id, err := c.AddFunc(cfg.Schedule, func() {
			if _, err := s.enqueue(context.Background(), name); err != nil {
				slog.Error("failed to enqueue maintenance job", "job", name, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron schedule %q for %s: %w", cfg.Schedule, name, err)
		}
		entries[name] = id
		slog.Info("maintenance job scheduled",
			"job", name,
			"schedule", cfg.Schedule,
			"description", settingsstore.CronDescription(cfg.Schedule))
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron = c
	s.entries = entries
	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.cron == c {
			s.stopLocked()
		}
	}()

	return nil
}

// Stop stops the scheduler and waits for running cron callbacks.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *MaintenanceScheduler) stopLocked() {
	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false
	s.entries = make(map[string]cron.EntryID)

	slog.Info("maintenance scheduler stopped")
}

// Reschedule reloads schedules from the settings store.
func (s *MaintenanceScheduler) Reschedule(ctx context.Context) error {
	s.Stop()
	return s.Start(ctx)
}

// RunNow enqueues a job immediately and returns the task ID.
func (s *MaintenanceScheduler) RunNow(ctx context.Context, name string) (string, error) {
	if _, err := s.settings.Job(name); err != nil {
		return "", err
	}
	return s.enqueue(ctx, name)
}

// IsRunning returns whether the scheduler is active.
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns returns the next activation of every scheduled job.
func (s *MaintenanceScheduler) NextRuns() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := make(map[string]time.Time, len(s.entries))
	if !s.isRunning {
		return next
	}
	for name, id := range s.entries {
		next[name] = s.cron.Entry(id).Next
	}
	return next
}

func (s *MaintenanceScheduler) enqueue(ctx context.Context, name string) (string, error) {
	task, err := tasks.NewTask(name, tasks.RunParams{RetentionDays: s.retentionDays})
	if err != nil {
		return "", err
	}

	id, err := s.queue.Enqueue(ctx, task)
	if err != nil {
		_ = s.settings.SetJobStatus(name, StatusFailed, err.Error())
		return "", err
	}

	_ = s.settings.SetJobStatus(name, StatusQueued, "task "+id)
	return id, nil
}
