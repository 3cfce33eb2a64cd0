package settingsstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database/dbtest"
	"github.com/mrlokans/locallibrary/internal/database/settings"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/tasks"
)

func setupStore(t *testing.T) (*SettingsStore, *settings.Repository) {
	t.Helper()
	t.Setenv("OVERDUE_SCAN_ENABLED", "")
	t.Setenv("OVERDUE_SCAN_SCHEDULE", "")
	t.Setenv("AUDIT_CLEANUP_ENABLED", "")
	t.Setenv("AUDIT_CLEANUP_SCHEDULE", "")

	repo := settings.NewRepository(dbtest.Open(t))
	store := New(repo, config.Maintenance{
		OverdueScanEnabled:   true,
		OverdueScanSchedule:  "0 7 * * *",
		AuditCleanupEnabled:  false,
		AuditCleanupSchedule: "",
	})
	return store, repo
}

func TestJobs(t *testing.T) {
	store, _ := setupStore(t)

	jobs := store.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, tasks.QueueOverdueScan, jobs[0].Name)
	assert.Equal(t, tasks.QueueCleanupAuditEvents, jobs[1].Name)

	_, err := store.Job("obsidian_sync")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestJobConfig_Defaults(t *testing.T) {
	store, _ := setupStore(t)

	cfg, err := store.JobConfig(tasks.QueueOverdueScan)
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "0 7 * * *", cfg.Schedule)

	cfg, err = store.JobConfig(tasks.QueueCleanupAuditEvents)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "30 3 * * *", cfg.Schedule, "empty configured schedule falls back to the built-in one")

	info, err := store.JobConfigInfo(tasks.QueueOverdueScan)
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, info.EnabledSource)
	assert.Equal(t, SourceDefault, info.ScheduleSource)
	assert.Equal(t, "Daily at 07:00", info.ScheduleDescription)
}

func TestJobConfig_DatabaseOverridesDefaults(t *testing.T) {
	store, repo := setupStore(t)

	require.NoError(t, store.SetJobEnabled(tasks.QueueOverdueScan, false))
	require.NoError(t, store.SetJobSchedule(tasks.QueueOverdueScan, "0 0 * * *"))

	cfg, err := store.JobConfig(tasks.QueueOverdueScan)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "0 0 * * *", cfg.Schedule)

	stored, err := repo.GetSetting(entities.SettingKeyOverdueScanSchedule)
	require.NoError(t, err)
	assert.Equal(t, "0 0 * * *", stored.Value)

	info, err := store.JobConfigInfo(tasks.QueueOverdueScan)
	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, info.EnabledSource)
	assert.Equal(t, SourceDatabase, info.ScheduleSource)

	require.NoError(t, store.ClearJobSettings(tasks.QueueOverdueScan))
	cfg, err = store.JobConfig(tasks.QueueOverdueScan)
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "0 7 * * *", cfg.Schedule)
}

func TestJobConfigInfo_EnvironmentSource(t *testing.T) {
	store, _ := setupStore(t)
	t.Setenv("AUDIT_CLEANUP_SCHEDULE", "0 0 * * 0")

	info, err := store.JobConfigInfo(tasks.QueueCleanupAuditEvents)
	require.NoError(t, err)
	assert.Equal(t, SourceEnvironment, info.ScheduleSource)
	assert.Equal(t, SourceDefault, info.EnabledSource)
}

func TestSetJobSchedule_RejectsInvalidCron(t *testing.T) {
	store, _ := setupStore(t)

	err := store.SetJobSchedule(tasks.QueueOverdueScan, "every day")
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	err = store.SetJobSchedule(tasks.QueueOverdueScan, "0 0 7 * * *")
	assert.Error(t, err, "six-field schedules are not accepted")
}

func TestJobStatus(t *testing.T) {
	store, _ := setupStore(t)

	status, err := store.JobStatus(tasks.QueueOverdueScan)
	require.NoError(t, err)
	assert.Nil(t, status.LastRunAt)
	assert.Empty(t, status.Status)

	before := time.Now().Add(-time.Second)
	require.NoError(t, store.SetJobStatus(tasks.QueueOverdueScan, "success", "Found 2 overdue copies"))

	status, err = store.JobStatus(tasks.QueueOverdueScan)
	require.NoError(t, err)
	require.NotNil(t, status.LastRunAt)
	assert.True(t, status.LastRunAt.After(before))
	assert.Equal(t, "success", status.Status)
	assert.Equal(t, "Found 2 overdue copies", status.Message)
}

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		valid    bool
	}{
		{"0 * * * *", true},
		{"*/15 * * * *", true},
		{"30 3 * * *", true},
		{"0 0 * * 0", true},
		{"", false},
		{"* * *", false},
		{"61 * * * *", false},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCronDescription(t *testing.T) {
	assert.Equal(t, "Every hour at :00", CronDescription("0 * * * *"))
	assert.Equal(t, "Daily at 03:30", CronDescription("30 3 * * *"))
	assert.Equal(t, "Custom schedule: 5 4 * * 1", CronDescription("5 4 * * 1"))
}

func TestNextRunTime(t *testing.T) {
	from := time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC)

	next, err := NextRunTime("0 7 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 10, 7, 0, 0, 0, time.UTC), next)

	_, err = NextRunTime("bogus", from)
	assert.Error(t, err)
}
