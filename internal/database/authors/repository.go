// Package authors provides database operations for authors.
//
// # Usage
//
//	repo := authors.NewRepository(db)
//	author, err := entities.NewAuthor("Ursula", "Le Guin")
//	err = repo.Create(author)
package authors

import (
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/database/constraints"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

// Repository handles all author database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new authors repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) filter(p listing.Params) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pattern := p.SearchPattern(); pattern != "" {
			db = db.Where("LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?)", pattern, pattern)
		}
		return db
	}
}

// List returns one page of authors ordered by last and first name.
func (r *Repository) List(p listing.Params) ([]entities.Author, int64, error) {
	var total int64
	if err := r.db.Model(&entities.Author{}).Scopes(r.filter(p)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []entities.Author
	err := r.db.Scopes(r.filter(p)).Order("last_name ASC, first_name ASC, id ASC").
		Limit(p.Limit()).Offset(p.Offset()).Find(&authors).Error
	return authors, total, err
}

// All returns every author ordered by last and first name.
func (r *Repository) All() ([]entities.Author, error) {
	var authors []entities.Author
	err := r.db.Order("last_name ASC, first_name ASC, id ASC").Find(&authors).Error
	return authors, err
}

// Get retrieves an author by ID.
func (r *Repository) Get(id uint) (*entities.Author, error) {
	var author entities.Author
	if err := r.db.First(&author, id).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

// Create inserts an author.
func (r *Repository) Create(author *entities.Author) error {
	if err := author.Validate(); err != nil {
		return err
	}
	return constraints.TranslateWrite(r.db.Create(author).Error, entities.ModelAuthor, "", nil)
}

// Update saves the names of an existing author.
func (r *Repository) Update(author *entities.Author) error {
	if err := author.Validate(); err != nil {
		return err
	}
	result := r.db.Model(&entities.Author{ID: author.ID}).Updates(map[string]any{
		"first_name": author.FirstName,
		"last_name":  author.LastName,
	})
	if result.Error != nil {
		return constraints.TranslateWrite(result.Error, entities.ModelAuthor, "", nil)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an author. Their books are kept with the author cleared.
func (r *Repository) Delete(id uint) error {
	return constraints.Delete(r.db, &entities.Author{}, entities.TableAuthors, id)
}

// Count returns the number of authors.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Author{}).Count(&count).Error
	return count, err
}
