package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/locallibrary/internal/entities"
)

// QueueOverdueScan is the queue name of OverdueScanTask.
const QueueOverdueScan = "overdue_scan"

// OverdueFinder lists copies on loan past their due date.
type OverdueFinder interface {
	ListOverdue(today entities.Date) ([]entities.BookInstance, error)
}

// OverdueRecorder records one overdue copy.
type OverdueRecorder interface {
	LogOverdue(instance entities.BookInstance, today entities.Date) error
}

// OverdueScanTask finds on-loan copies whose due_back date has passed.
// Today may be set for a reproducible run; the zero value means the
// current date.
type OverdueScanTask struct {
	Today string `json:"today,omitempty"`
}

// Config returns the queue configuration for overdue scans.
func (t OverdueScanTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueOverdueScan,
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func (t OverdueScanTask) date() (entities.Date, error) {
	if t.Today == "" {
		return entities.Today(), nil
	}
	return entities.ParseDate(t.Today)
}

// OverdueScanProcessor creates a processor function for OverdueScanTask.
func OverdueScanProcessor(finder OverdueFinder, recorder OverdueRecorder, log MaintenanceLogger) backlite.QueueProcessor[OverdueScanTask] {
	return func(ctx context.Context, task OverdueScanTask) error {
		if finder == nil || recorder == nil {
			return fmt.Errorf("overdue scan not configured")
		}

		today, err := task.date()
		if err != nil {
			return fmt.Errorf("overdue scan: %w", err)
		}

		overdue, err := finder.ListOverdue(today)
		if err != nil {
			err = fmt.Errorf("overdue scan: %w", err)
			if log != nil {
				log.LogMaintenance(QueueOverdueScan, "overdue scan failed", nil, err)
			}
			return err
		}

		var errs []error
		for _, instance := range overdue {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := recorder.LogOverdue(instance, today); err != nil {
				errs = append(errs, fmt.Errorf("record %s: %w", instance.ID, err))
			}
		}

		slog.Info("overdue scan finished", "date", today.String(), "overdue", len(overdue), "failed", len(errs))
		err = errors.Join(errs...)
		if log != nil {
			log.LogMaintenance(QueueOverdueScan,
				fmt.Sprintf("Found %d overdue copies on %s", len(overdue), today),
				map[string]any{"count": len(overdue), "date": today.String()}, err)
		}
		return err
	}
}

// NewOverdueScanQueue creates a backlite queue for overdue scans.
func NewOverdueScanQueue(finder OverdueFinder, recorder OverdueRecorder, log MaintenanceLogger) backlite.Queue {
	return backlite.NewQueue(OverdueScanProcessor(finder, recorder, log))
}
