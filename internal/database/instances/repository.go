// Package instances provides database operations for physical book copies.
//
// Listings are ordered ascending by due_back with copies that have no due
// date last, then by id so the order is total.
package instances

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/locallibrary/internal/database/constraints"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

// DefaultOrder sorts by due_back ascending, nulls last.
const DefaultOrder = "CASE WHEN book_instances.due_back IS NULL THEN 1 ELSE 0 END, book_instances.due_back ASC, book_instances.id ASC"

// Filter narrows a copy listing.
type Filter struct {
	listing.Params
	Statuses []entities.LoanStatus
	BookID   *uint
	DueBack  listing.DateRange
}

// Repository handles all book instance database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new instances repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) filter(f Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pattern := f.SearchPattern(); pattern != "" {
			titles := r.db.Model(&entities.Book{}).Select("id").Where("LOWER(title) LIKE LOWER(?)", pattern)
			db = db.Where("LOWER(book_instances.imprint) LIKE LOWER(?) OR book_instances.book_id IN (?)", pattern, titles)
		}
		if len(f.Statuses) > 0 {
			db = db.Where("book_instances.status IN ?", f.Statuses)
		}
		if f.BookID != nil {
			db = db.Where("book_instances.book_id = ?", *f.BookID)
		}
		return applyDateRange(db, f.DueBack)
	}
}

func applyDateRange(db *gorm.DB, r listing.DateRange) *gorm.DB {
	if r.IsNull != nil {
		if *r.IsNull {
			return db.Where("book_instances.due_back IS NULL")
		}
		return db.Where("book_instances.due_back IS NOT NULL")
	}
	if r.From != nil {
		db = db.Where("book_instances.due_back >= ?", *r.From)
	}
	if r.To != nil {
		db = db.Where("book_instances.due_back < ?", *r.To)
	}
	return db
}

// List returns one page of copies in the default order with Book loaded.
func (r *Repository) List(f Filter) ([]entities.BookInstance, int64, error) {
	var total int64
	if err := r.db.Model(&entities.BookInstance{}).Scopes(r.filter(f)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entities.BookInstance
	err := r.db.Scopes(r.filter(f)).Preload("Book").Order(DefaultOrder).
		Limit(f.Limit()).Offset(f.Offset()).Find(&items).Error
	return items, total, err
}

// Get retrieves a copy by ID with its Book loaded.
func (r *Repository) Get(id uuid.UUID) (*entities.BookInstance, error) {
	var item entities.BookInstance
	if err := r.db.Preload("Book").Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListForBook returns every copy of a book in the default order.
func (r *Repository) ListForBook(bookID uint) ([]entities.BookInstance, error) {
	var items []entities.BookInstance
	err := r.db.Where("book_id = ?", bookID).Order(DefaultOrder).Find(&items).Error
	return items, err
}

// Create inserts a copy. A nil ID is replaced with a fresh random one.
func (r *Repository) Create(item *entities.BookInstance) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if err := item.Validate(); err != nil {
		return err
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.checkWrite(tx, item, true); err != nil {
			return err
		}
		return constraints.TranslateWrite(tx.Omit(clause.Associations).Create(item).Error, entities.ModelBookInstance, "id", item.ID)
	})
	if err != nil {
		return err
	}
	return r.loadBook(item)
}

// Update saves an existing copy.
func (r *Repository) Update(item *entities.BookInstance) error {
	if err := item.Validate(); err != nil {
		return err
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.checkWrite(tx, item, false); err != nil {
			return err
		}
		result := tx.Model(&entities.BookInstance{}).Where("id = ?", item.ID).Updates(map[string]any{
			"book_id":  item.BookID,
			"imprint":  item.Imprint,
			"due_back": item.DueBack,
			"status":   item.Status,
		})
		if result.Error != nil {
			return constraints.TranslateWrite(result.Error, entities.ModelBookInstance, "id", item.ID)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	return r.loadBook(item)
}

// UpdateStatus changes only the status and due date of a copy.
func (r *Repository) UpdateStatus(id uuid.UUID, status entities.LoanStatus, dueBack *entities.Date) error {
	if !status.Valid() {
		return &entities.ConstraintError{
			Kind:   entities.ErrInvalidEnumValue,
			Entity: entities.ModelBookInstance,
			Field:  "status",
			Value:  string(status),
		}
	}
	result := r.db.Model(&entities.BookInstance{}).Where("id = ?", id).Updates(map[string]any{
		"status":   status,
		"due_back": dueBack,
	})
	if result.Error != nil {
		return constraints.TranslateWrite(result.Error, entities.ModelBookInstance, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a copy.
func (r *Repository) Delete(id uuid.UUID) error {
	return constraints.Delete(r.db, &entities.BookInstance{}, entities.TableBookInstances, id)
}

// Count returns the number of copies.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.BookInstance{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of copies per status. Every status is
// present in the result, zero when no copy has it.
func (r *Repository) CountByStatus() (map[entities.LoanStatus]int64, error) {
	var rows []struct {
		Status entities.LoanStatus
		Total  int64
	}
	err := r.db.Model(&entities.BookInstance{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entities.LoanStatus]int64, len(rows))
	for _, s := range entities.LoanStatuses() {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// ListOverdue returns copies on loan whose due date is before today.
func (r *Repository) ListOverdue(today entities.Date) ([]entities.BookInstance, error) {
	var items []entities.BookInstance
	err := r.db.Preload("Book").
		Where("status = ? AND due_back IS NOT NULL AND due_back < ?", entities.LoanStatusOnLoan, today).
		Order(DefaultOrder).
		Find(&items).Error
	return items, err
}

func (r *Repository) checkWrite(tx *gorm.DB, item *entities.BookInstance, creating bool) error {
	if creating {
		if err := constraints.EnsureUnique(tx, &entities.BookInstance{}, entities.ModelBookInstance, "id", item.ID, nil); err != nil {
			return err
		}
	}
	bookID := item.BookID
	return constraints.EnsureExists(tx, entities.ModelBookInstance, "book", entities.TableBooks, &bookID)
}

func (r *Repository) loadBook(item *entities.BookInstance) error {
	var book entities.Book
	if err := r.db.First(&book, item.BookID).Error; err != nil {
		return err
	}
	item.Book = &book
	return nil
}
