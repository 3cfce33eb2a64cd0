package tasks

import (
	"fmt"

	"github.com/mikestefanello/backlite"
)

// TypeInfo describes a task that can be triggered manually.
type TypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// RunParams carries the optional arguments of a manual run.
type RunParams struct {
	RetentionDays int    `json:"retention_days,omitempty" form:"retention_days"`
	Today         string `json:"today,omitempty" form:"today"`
}

// Types lists the maintenance tasks in display order.
func Types() []TypeInfo {
	return []TypeInfo{
		{
			Type:        QueueOverdueScan,
			Description: "Record every copy on loan past its due back date",
			Queue:       QueueOverdueScan,
		},
		{
			Type:        QueueCleanupAuditEvents,
			Description: "Archive and delete audit events older than the retention period",
			Queue:       QueueCleanupAuditEvents,
		},
	}
}

// NewTask builds the task for a type name.
func NewTask(taskType string, params RunParams) (backlite.Task, error) {
	switch taskType {
	case QueueOverdueScan:
		return OverdueScanTask{Today: params.Today}, nil
	case QueueCleanupAuditEvents:
		return CleanupAuditEventsTask{RetentionDays: params.RetentionDays}, nil
	default:
		return nil, fmt.Errorf("unknown task type: %s", taskType)
	}
}
