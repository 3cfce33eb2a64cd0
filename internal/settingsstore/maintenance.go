package settingsstore

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/tasks"
)

// Job describes the settings of one scheduled maintenance task.
type Job struct {
	Name            string
	EnabledKey      string
	ScheduleKey     string
	LastAtKey       string
	LastStatusKey   string
	LastMessageKey  string
	EnabledEnv      string
	ScheduleEnv     string
	DefaultEnabled  bool
	DefaultSchedule string
}

// JobConfig is the effective configuration of a job.
type JobConfig struct {
	Name     string `json:"name"`
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// JobConfigInfo includes source information for each field.
type JobConfigInfo struct {
	Name                string `json:"name"`
	Enabled             bool   `json:"enabled"`
	EnabledSource       string `json:"enabled_source"`
	Schedule            string `json:"schedule"`
	ScheduleSource      string `json:"schedule_source"`
	ScheduleDescription string `json:"schedule_description"`
}

// JobStatus is the outcome of the last run.
type JobStatus struct {
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	Status    string     `json:"status,omitempty"`
	Message   string     `json:"message,omitempty"`
}

func maintenanceJobs(cfg config.Maintenance) []Job {
	return []Job{
		{
			Name:            tasks.QueueOverdueScan,
			EnabledKey:      entities.SettingKeyOverdueScanEnabled,
			ScheduleKey:     entities.SettingKeyOverdueScanSchedule,
			LastAtKey:       entities.SettingKeyOverdueScanLastAt,
			LastStatusKey:   entities.SettingKeyOverdueScanLastStatus,
			LastMessageKey:  entities.SettingKeyOverdueScanLastMessage,
			EnabledEnv:      "OVERDUE_SCAN_ENABLED",
			ScheduleEnv:     "OVERDUE_SCAN_SCHEDULE",
			DefaultEnabled:  cfg.OverdueScanEnabled,
			DefaultSchedule: orDefault(cfg.OverdueScanSchedule, "0 7 * * *"),
		},
		{
			Name:            tasks.QueueCleanupAuditEvents,
			EnabledKey:      entities.SettingKeyAuditCleanupEnabled,
			ScheduleKey:     entities.SettingKeyAuditCleanupSchedule,
			LastAtKey:       entities.SettingKeyAuditCleanupLastAt,
			LastStatusKey:   entities.SettingKeyAuditCleanupLastStatus,
			LastMessageKey:  entities.SettingKeyAuditCleanupLastMessage,
			EnabledEnv:      "AUDIT_CLEANUP_ENABLED",
			ScheduleEnv:     "AUDIT_CLEANUP_SCHEDULE",
			DefaultEnabled:  cfg.AuditCleanupEnabled,
			DefaultSchedule: orDefault(cfg.AuditCleanupSchedule, "30 3 * * *"),
		},
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Jobs returns the maintenance jobs in display order.
func (s *SettingsStore) Jobs() []Job {
	return s.jobs
}

// Job looks up a job by name.
func (s *SettingsStore) Job(name string) (Job, error) {
	for _, j := range s.jobs {
		if j.Name == name {
			return j, nil
		}
	}
	return Job{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
}

// JobConfig returns the effective configuration of a job.
func (s *SettingsStore) JobConfig(name string) (JobConfig, error) {
	j, err := s.Job(name)
	if err != nil {
		return JobConfig{}, err
	}
	return JobConfig{
		Name:     j.Name,
		Enabled:  s.getBool(j.EnabledKey, j.DefaultEnabled),
		Schedule: s.getString(j.ScheduleKey, j.DefaultSchedule),
	}, nil
}

// JobConfigInfo returns the configuration of a job with value sources.
func (s *SettingsStore) JobConfigInfo(name string) (JobConfigInfo, error) {
	j, err := s.Job(name)
	if err != nil {
		return JobConfigInfo{}, err
	}
	cfg, _ := s.JobConfig(name)
	return JobConfigInfo{
		Name:                j.Name,
		Enabled:             cfg.Enabled,
		EnabledSource:       s.source(j.EnabledKey, j.EnabledEnv),
		Schedule:            cfg.Schedule,
		ScheduleSource:      s.source(j.ScheduleKey, j.ScheduleEnv),
		ScheduleDescription: CronDescription(cfg.Schedule),
	}, nil
}

// SetJobEnabled stores the enabled flag of a job.
func (s *SettingsStore) SetJobEnabled(name string, enabled bool) error {
	j, err := s.Job(name)
	if err != nil {
		return err
	}
	return s.setBool(j.EnabledKey, enabled)
}

// SetJobSchedule validates and stores the cron schedule of a job.
func (s *SettingsStore) SetJobSchedule(name, schedule string) error {
	j, err := s.Job(name)
	if err != nil {
		return err
	}
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, schedule, err)
	}
	return s.repo.SetSetting(j.ScheduleKey, schedule)
}

// JobStatus returns the outcome of the last run of a job.
func (s *SettingsStore) JobStatus(name string) (JobStatus, error) {
	j, err := s.Job(name)
	if err != nil {
		return JobStatus{}, err
	}

	status := JobStatus{
		Status:  s.getString(j.LastStatusKey, ""),
		Message: s.getString(j.LastMessageKey, ""),
	}
	if v, ok := s.stored(j.LastAtKey); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			status.LastRunAt = &ts
		}
	}
	return status, nil
}

// SetJobStatus records the outcome of a run.
func (s *SettingsStore) SetJobStatus(name, status, message string) error {
	j, err := s.Job(name)
	if err != nil {
		return err
	}
	return s.repo.SetSettings(map[string]string{
		j.LastAtKey:      time.Now().UTC().Format(time.RFC3339),
		j.LastStatusKey:  status,
		j.LastMessageKey: message,
	})
}

// ClearJobSettings removes database overrides, reverting to env/default.
func (s *SettingsStore) ClearJobSettings(name string) error {
	j, err := s.Job(name)
	if err != nil {
		return err
	}
	return s.clear(j.EnabledKey, j.ScheduleKey)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a five-field cron schedule.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// CronDescription returns a human-readable description of a cron schedule.
func CronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 7 * * *":
		return "Daily at 07:00"
	case "30 3 * * *":
		return "Daily at 03:30"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// NextRunTime calculates the next activation of a schedule after from.
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// CronParser returns the parser shared with the scheduler.
func CronParser() cron.Parser {
	return cronParser
}
