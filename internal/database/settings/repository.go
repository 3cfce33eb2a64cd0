// Package settings is a key/value table for values changed at runtime,
// such as maintenance schedules and the outcome of their last run.
package settings

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/locallibrary/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting fails with gorm.ErrRecordNotFound for unset keys.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	setting := &entities.Setting{}
	if err := r.db.First(setting, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return setting, nil
}

// GetValue returns the stored value of key, or fallback when unset.
func (r *Repository) GetValue(key, fallback string) string {
	if setting, err := r.GetSetting(key); err == nil {
		return setting.Value
	}
	return fallback
}

var upsertValue = clause.OnConflict{
	Columns:   []clause.Column{{Name: "key"}},
	DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
}

// SetSetting inserts or overwrites key.
func (r *Repository) SetSetting(key, value string) error {
	return r.db.Clauses(upsertValue).Create(&entities.Setting{Key: key, Value: value}).Error
}

// SetSettings writes every pair or none.
func (r *Repository) SetSettings(values map[string]string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			if err := NewRepository(tx).SetSetting(key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSetting is a no-op for unset keys.
func (r *Repository) DeleteSetting(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.Setting{}).Error
}

// IsNotFound reports whether err means the key is unset.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
