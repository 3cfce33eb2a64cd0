// Package publishers provides database operations for publishers.
package publishers

import (
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/database/constraints"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

// Repository handles all publisher database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new publishers repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) filter(p listing.Params) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pattern := p.SearchPattern(); pattern != "" {
			db = db.Where("LOWER(name) LIKE LOWER(?)", pattern)
		}
		return db
	}
}

// List returns one page of publishers ordered by name, plus the total count.
func (r *Repository) List(p listing.Params) ([]entities.Publisher, int64, error) {
	var total int64
	if err := r.db.Model(&entities.Publisher{}).Scopes(r.filter(p)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entities.Publisher
	err := r.db.Scopes(r.filter(p)).Order("name ASC, id ASC").
		Limit(p.Limit()).Offset(p.Offset()).Find(&items).Error
	return items, total, err
}

// All returns every publisher ordered by name.
func (r *Repository) All() ([]entities.Publisher, error) {
	var items []entities.Publisher
	err := r.db.Order("name ASC, id ASC").Find(&items).Error
	return items, err
}

// Get retrieves a publisher by ID.
func (r *Repository) Get(id uint) (*entities.Publisher, error) {
	var item entities.Publisher
	if err := r.db.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a publisher.
func (r *Repository) Create(item *entities.Publisher) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return constraints.TranslateWrite(r.db.Create(item).Error, entities.ModelPublisher, "name", item.Name)
}

// Update saves the name of an existing publisher.
func (r *Repository) Update(item *entities.Publisher) error {
	if err := item.Validate(); err != nil {
		return err
	}
	result := r.db.Model(&entities.Publisher{ID: item.ID}).Updates(map[string]any{"name": item.Name})
	if result.Error != nil {
		return constraints.TranslateWrite(result.Error, entities.ModelPublisher, "name", item.Name)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a publisher. Books referencing it keep existing with the
// reference cleared.
func (r *Repository) Delete(id uint) error {
	return constraints.Delete(r.db, &entities.Publisher{}, entities.TablePublishers, id)
}

// Count returns the number of publishers.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Publisher{}).Count(&count).Error
	return count, err
}
