package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Overdue scan
	SettingKeyOverdueScanEnabled     = "overdue_scan_enabled"
	SettingKeyOverdueScanSchedule    = "overdue_scan_schedule"
	SettingKeyOverdueScanLastAt      = "overdue_scan_last_at"
	SettingKeyOverdueScanLastStatus  = "overdue_scan_last_status"
	SettingKeyOverdueScanLastMessage = "overdue_scan_last_message"

	// Audit cleanup
	SettingKeyAuditCleanupEnabled     = "audit_cleanup_enabled"
	SettingKeyAuditCleanupSchedule    = "audit_cleanup_schedule"
	SettingKeyAuditCleanupLastAt      = "audit_cleanup_last_at"
	SettingKeyAuditCleanupLastStatus  = "audit_cleanup_last_status"
	SettingKeyAuditCleanupLastMessage = "audit_cleanup_last_message"
)
