// Package audit stores the audit event log.
package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/entities"
)

const defaultLimit = 50

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	UserID     uint
	EventType  entities.AuditEventType
	EntityType string
	EntityID   string
}

func (f Filter) scope(db *gorm.DB) *gorm.DB {
	conds := map[string]any{}
	if f.UserID != 0 {
		conds["user_id"] = f.UserID
	}
	if f.EventType != "" {
		conds["event_type"] = f.EventType
	}
	if f.EntityType != "" {
		conds["entity_type"] = f.EntityType
	}
	if f.EntityID != "" {
		conds["entity_id"] = f.EntityID
	}
	if len(conds) == 0 {
		return db
	}
	return db.Where(conds)
}

func olderThan(cutoff time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("created_at < ?", cutoff)
	}
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert stamps CreatedAt when unset.
func (r *Repository) Insert(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// List returns one page, newest first, with the total match count. A
// non-positive limit means the default page size.
func (r *Repository) List(f Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	var total int64
	if err := r.db.Model(&entities.AuditEvent{}).Scopes(f.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	var events []entities.AuditEvent
	err := r.db.Scopes(f.scope).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(max(offset, 0)).
		Find(&events).Error
	return events, total, err
}

// Before returns every event older than cutoff, oldest first.
func (r *Repository) Before(cutoff time.Time) ([]entities.AuditEvent, error) {
	var events []entities.AuditEvent
	err := r.db.Scopes(olderThan(cutoff)).Order("created_at ASC, id ASC").Find(&events).Error
	return events, err
}

// Purge deletes every event older than cutoff.
func (r *Repository) Purge(cutoff time.Time) (int64, error) {
	res := r.db.Scopes(olderThan(cutoff)).Delete(&entities.AuditEvent{})
	return res.RowsAffected, res.Error
}
