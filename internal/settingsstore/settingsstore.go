// Package settingsstore resolves runtime-editable settings.
//
// Priority: database > environment > default. Environment values reach the
// store through the loaded config.Maintenance; the source reported for a
// value is "environment" only when its variable is actually set.
package settingsstore

import (
	"errors"
	"os"
	"strconv"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database/settings"
)

// Value sources
const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

var (
	ErrUnknownJob      = errors.New("unknown maintenance job")
	ErrInvalidSchedule = errors.New("invalid cron schedule")
)

type SettingsStore struct {
	repo     *settings.Repository
	defaults config.Maintenance
	jobs     []Job
}

func New(repo *settings.Repository, defaults config.Maintenance) *SettingsStore {
	return &SettingsStore{
		repo:     repo,
		defaults: defaults,
		jobs:     maintenanceJobs(defaults),
	}
}

// stored returns the database value of key when it is set and non-empty.
func (s *SettingsStore) stored(key string) (string, bool) {
	setting, err := s.repo.GetSetting(key)
	if err != nil || setting.Value == "" {
		return "", false
	}
	return setting.Value, true
}

func (s *SettingsStore) source(key, env string) string {
	if _, ok := s.stored(key); ok {
		return SourceDatabase
	}
	if env != "" && os.Getenv(env) != "" {
		return SourceEnvironment
	}
	return SourceDefault
}

func (s *SettingsStore) getBool(key string, fallback bool) bool {
	if v, ok := s.stored(key); ok {
		return v == "true" || v == "1"
	}
	return fallback
}

func (s *SettingsStore) getString(key, fallback string) string {
	if v, ok := s.stored(key); ok {
		return v
	}
	return fallback
}

func (s *SettingsStore) setBool(key string, v bool) error {
	return s.repo.SetSetting(key, strconv.FormatBool(v))
}

func (s *SettingsStore) clear(keys ...string) error {
	for _, key := range keys {
		if err := s.repo.DeleteSetting(key); err != nil && !settings.IsNotFound(err) {
			return err
		}
	}
	return nil
}
