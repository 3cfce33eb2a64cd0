package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"
)

// QueueCleanupAuditEvents is the queue name of CleanupAuditEventsTask.
const QueueCleanupAuditEvents = "cleanup_audit_events"

const defaultRetentionDays = 30

// AuditEventArchiver archives and removes expired audit events.
type AuditEventArchiver interface {
	ArchiveOldEvents(retention time.Duration) (int64, string, error)
}

// MaintenanceLogger records the outcome of a maintenance run.
type MaintenanceLogger interface {
	LogMaintenance(action, description string, metadata map[string]any, err error)
}

// CleanupAuditEventsTask archives audit events older than the retention
// period to a JSON file, then deletes them.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for audit cleanup tasks.
func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueCleanupAuditEvents,
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupAuditEventsProcessor creates a processor function for CleanupAuditEventsTask.
func CleanupAuditEventsProcessor(archiver AuditEventArchiver, log MaintenanceLogger) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if archiver == nil {
			return fmt.Errorf("audit event archiver not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = defaultRetentionDays
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour

		archived, file, err := archiver.ArchiveOldEvents(retention)
		if err != nil {
			err = fmt.Errorf("cleanup audit events: %w", err)
			if log != nil {
				log.LogMaintenance(QueueCleanupAuditEvents, "audit cleanup failed", nil, err)
			}
			return err
		}

		slog.Info("archived audit events", "count", archived, "retention_days", retentionDays, "file", file)
		if log != nil && archived > 0 {
			log.LogMaintenance(QueueCleanupAuditEvents,
				fmt.Sprintf("Archived %d audit events older than %d days", archived, retentionDays),
				map[string]any{"count": archived, "file": file, "retention_days": retentionDays}, nil)
		}
		return nil
	}
}

// NewCleanupAuditEventsQueue creates a backlite queue for audit cleanup tasks.
func NewCleanupAuditEventsQueue(archiver AuditEventArchiver, log MaintenanceLogger) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(archiver, log))
}
