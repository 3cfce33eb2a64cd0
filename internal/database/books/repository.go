// Package books provides database operations for books and their genre
// associations.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := entities.NewBook("Dune", "Desert planet.", "9780441172719")
//	err = repo.Create(book, []uint{sciFiID})
//	book, err = repo.Get(book.ID) // Author, Language, Publisher and Genres loaded
package books

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/locallibrary/internal/database/constraints"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

// Filter narrows a book listing.
type Filter struct {
	listing.Params
	AuthorID    *uint
	LanguageID  *uint
	PublisherID *uint
	GenreID     *uint
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) filter(f Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pattern := f.SearchPattern(); pattern != "" {
			db = db.Where("LOWER(books.title) LIKE LOWER(?) OR books.isbn LIKE ?", pattern, pattern)
		}
		if f.AuthorID != nil {
			db = db.Where("books.author_id = ?", *f.AuthorID)
		}
		if f.LanguageID != nil {
			db = db.Where("books.language_id = ?", *f.LanguageID)
		}
		if f.PublisherID != nil {
			db = db.Where("books.publisher_id = ?", *f.PublisherID)
		}
		if f.GenreID != nil {
			sub := r.db.Model(&entities.BookGenre{}).Select("book_id").Where("genre_id = ?", *f.GenreID)
			db = db.Where("books.id IN (?)", sub)
		}
		return db
	}
}

func preload(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Language").Preload("Publisher")
}

// List returns one page of books ordered by title with relations loaded.
func (r *Repository) List(f Filter) ([]entities.Book, int64, error) {
	var total int64
	if err := r.db.Model(&entities.Book{}).Scopes(r.filter(f)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []entities.Book
	err := r.db.Scopes(r.filter(f), preload).Order("books.title ASC, books.id ASC").
		Limit(f.Limit()).Offset(f.Offset()).Find(&books).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.loadGenres(books); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// All returns every book ordered by title, without relations.
func (r *Repository) All() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("title ASC, id ASC").Find(&books).Error
	return books, err
}

// Get retrieves a book by ID with its relations and genres.
func (r *Repository) Get(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.Scopes(preload).First(&book, id).Error; err != nil {
		return nil, err
	}
	books := []entities.Book{book}
	if err := r.loadGenres(books); err != nil {
		return nil, err
	}
	return &books[0], nil
}

// GetByISBN retrieves a book by its normalized ISBN.
func (r *Repository) GetByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.Where("isbn = ?", entities.NormalizeISBN(isbn)).First(&book).Error; err != nil {
		return nil, err
	}
	return r.Get(book.ID)
}

// Create inserts a book and associates genreIDs in the given order.
// Fails with ErrUniquenessViolation on a duplicate ISBN.
func (r *Repository) Create(book *entities.Book, genreIDs []uint) error {
	if err := book.Validate(); err != nil {
		return err
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.checkWrite(tx, book); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(book).Error; err != nil {
			return constraints.TranslateWrite(err, entities.ModelBook, "isbn", book.ISBN)
		}
		return setGenres(tx, book.ID, genreIDs)
	})
	if err != nil {
		return err
	}
	return r.reloadGenres(book)
}

// Update saves the fields, relations and genres of an existing book.
func (r *Repository) Update(book *entities.Book, genreIDs []uint) error {
	if err := book.Validate(); err != nil {
		return err
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.checkWrite(tx, book); err != nil {
			return err
		}
		result := tx.Model(&entities.Book{ID: book.ID}).Updates(map[string]any{
			"title":        book.Title,
			"summary":      book.Summary,
			"isbn":         book.ISBN,
			"author_id":    book.AuthorID,
			"language_id":  book.LanguageID,
			"publisher_id": book.PublisherID,
		})
		if result.Error != nil {
			return constraints.TranslateWrite(result.Error, entities.ModelBook, "isbn", book.ISBN)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return setGenres(tx, book.ID, genreIDs)
	})
	if err != nil {
		return err
	}
	return r.reloadGenres(book)
}

// SetGenres replaces the genres of a book, keeping the given order.
func (r *Repository) SetGenres(bookID uint, genreIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return setGenres(tx, bookID, genreIDs)
	})
}

// Delete removes a book and its genre links. Fails with
// ErrReferentialRestriction while any copy of the book exists.
func (r *Repository) Delete(id uint) error {
	return constraints.Delete(r.db, &entities.Book{}, entities.TableBooks, id)
}

// Count returns the number of books.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}

func (r *Repository) checkWrite(tx *gorm.DB, book *entities.Book) error {
	if err := constraints.EnsureUnique(tx, &entities.Book{}, entities.ModelBook, "isbn", book.ISBN, book.ID); err != nil {
		return err
	}
	if err := constraints.EnsureExists(tx, entities.ModelBook, "author", entities.TableAuthors, book.AuthorID); err != nil {
		return err
	}
	if err := constraints.EnsureExists(tx, entities.ModelBook, "language", entities.TableLanguages, book.LanguageID); err != nil {
		return err
	}
	return constraints.EnsureExists(tx, entities.ModelBook, "publisher", entities.TablePublishers, book.PublisherID)
}

func (r *Repository) reloadGenres(book *entities.Book) error {
	books := []entities.Book{*book}
	if err := r.loadGenres(books); err != nil {
		return err
	}
	book.Genres = books[0].Genres
	return nil
}

// setGenres rewrites the book_genres rows of bookID. Duplicate ids are
// dropped, keeping the first occurrence.
func setGenres(tx *gorm.DB, bookID uint, genreIDs []uint) error {
	ids := dedupe(genreIDs)

	if len(ids) > 0 {
		var found int64
		if err := tx.Model(&entities.Genre{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return err
		}
		if found != int64(len(ids)) {
			return entities.NewValidationError(entities.ModelBook, "genres", constraints.InvalidChoice)
		}
	}

	if err := tx.Where("book_id = ?", bookID).Delete(&entities.BookGenre{}).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	links := make([]entities.BookGenre, 0, len(ids))
	for i, id := range ids {
		links = append(links, entities.BookGenre{BookID: bookID, GenreID: id, Position: i})
	}
	return tx.Omit(clause.Associations).Create(&links).Error
}

type genreRow struct {
	BookID uint
	ID     uint
	Name   string
}

// loadGenres fills Genres of every book in association order with one query.
func (r *Repository) loadGenres(books []entities.Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}

	var rows []genreRow
	err := r.db.Table(entities.TableBookGenres).
		Select("book_genres.book_id AS book_id, genres.id AS id, genres.name AS name").
		Joins("JOIN genres ON genres.id = book_genres.genre_id").
		Where("book_genres.book_id IN ?", ids).
		Order("book_genres.book_id, book_genres.position, genres.id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	byBook := make(map[uint][]entities.Genre, len(books))
	for _, row := range rows {
		byBook[row.BookID] = append(byBook[row.BookID], entities.Genre{ID: row.ID, Name: row.Name})
	}
	for i := range books {
		books[i].Genres = byBook[books[i].ID]
		if books[i].Genres == nil {
			books[i].Genres = []entities.Genre{}
		}
	}
	return nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
