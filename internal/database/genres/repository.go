// Package genres provides database operations for book genres.
//
// # Usage
//
//	repo := genres.NewRepository(db)
//	genre, err := entities.NewGenre("Science Fiction")
//	err = repo.Create(genre)
package genres

import (
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/database/constraints"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

// Repository handles all genre database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new genres repository.
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

// List returns one page of genres ordered by name, plus the total count.
func (r *Repository) List(p listing.Params) ([]entities.Genre, int64, error) {
	var total int64
	if err := r.db.Model(&entities.Genre{}).Scopes(r.filter(p)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var genres []entities.Genre
	err := r.db.Scopes(r.filter(p)).Order("name ASC, id ASC").
		Limit(p.Limit()).Offset(p.Offset()).Find(&genres).Error
	return genres, total, err
}

// All returns every genre ordered by name.
func (r *Repository) All() ([]entities.Genre, error) {
	var genres []entities.Genre
	err := r.db.Order("name ASC, id ASC").Find(&genres).Error
	return genres, err
}

// Get retrieves a genre by ID.
func (r *Repository) Get(id uint) (*entities.Genre, error) {
	var genre entities.Genre
	if err := r.db.First(&genre, id).Error; err != nil {
		return nil, err
	}
	return &genre, nil
}

// GetByName retrieves a genre by its exact name.
func (r *Repository) GetByName(name string) (*entities.Genre, error) {
	var genre entities.Genre
	if err := r.db.Where("name = ?", name).First(&genre).Error; err != nil {
		return nil, err
	}
	return &genre, nil
}

// Create inserts a genre. Fails with ErrUniquenessViolation on a duplicate name.
func (r *Repository) Create(genre *entities.Genre) error {
	if err := genre.Validate(); err != nil {
		return err
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := constraints.EnsureUnique(tx, &entities.Genre{}, entities.ModelGenre, "name", genre.Name, nil); err != nil {
			return err
		}
		return constraints.TranslateWrite(tx.Create(genre).Error, entities.ModelGenre, "name", genre.Name)
	})
}

// Update saves the name of an existing genre.
func (r *Repository) Update(genre *entities.Genre) error {
	if err := genre.Validate(); err != nil {
		return err
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := constraints.EnsureUnique(tx, &entities.Genre{}, entities.ModelGenre, "name", genre.Name, genre.ID); err != nil {
			return err
		}
		result := tx.Model(&entities.Genre{ID: genre.ID}).Updates(map[string]any{"name": genre.Name})
		if result.Error != nil {
			return constraints.TranslateWrite(result.Error, entities.ModelGenre, "name", genre.Name)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Delete removes a genre and its book associations. Books are kept.
func (r *Repository) Delete(id uint) error {
	return constraints.Delete(r.db, &entities.Genre{}, entities.TableGenres, id)
}

// Count returns the number of genres.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Genre{}).Count(&count).Error
	return count, err
}
