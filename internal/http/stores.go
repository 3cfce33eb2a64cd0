package http

import (
	"github.com/google/uuid"

	"github.com/mrlokans/locallibrary/internal/database/books"
	"github.com/mrlokans/locallibrary/internal/database/instances"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

// This file consolidates the store interfaces used by HTTP controllers.
// The repositories under internal/database implement them.

// NamedStore is the store of a catalog model that only has a name:
// genres, publishers and languages.
type NamedStore[T any] interface {
	List(p listing.Params) ([]T, int64, error)
	All() ([]T, error)
	Get(id uint) (*T, error)
	Create(item *T) error
	Update(item *T) error
	Delete(id uint) error
}

type GenreStore = NamedStore[entities.Genre]
type PublisherStore = NamedStore[entities.Publisher]
type LanguageStore = NamedStore[entities.Language]

// AuthorStore provides author CRUD.
type AuthorStore interface {
	List(p listing.Params) ([]entities.Author, int64, error)
	All() ([]entities.Author, error)
	Get(id uint) (*entities.Author, error)
	Create(author *entities.Author) error
	Update(author *entities.Author) error
	Delete(id uint) error
}

// BookStore provides book CRUD with ordered genre assignment.
type BookStore interface {
	List(f books.Filter) ([]entities.Book, int64, error)
	All() ([]entities.Book, error)
	Get(id uint) (*entities.Book, error)
	Create(book *entities.Book, genreIDs []uint) error
	Update(book *entities.Book, genreIDs []uint) error
	Delete(id uint) error
}

// InstanceStore provides book copy CRUD.
type InstanceStore interface {
	List(f instances.Filter) ([]entities.BookInstance, int64, error)
	Get(id uuid.UUID) (*entities.BookInstance, error)
	ListForBook(bookID uint) ([]entities.BookInstance, error)
	Create(item *entities.BookInstance) error
	Update(item *entities.BookInstance) error
	UpdateStatus(id uuid.UUID, status entities.LoanStatus, dueBack *entities.Date) error
	Delete(id uuid.UUID) error
}

// CatalogAuditor records catalog writes. *audit.Service implements it.
type CatalogAuditor interface {
	LogCreate(userID uint, entity, id, label string)
	LogUpdate(userID uint, entity, id, label string)
	LogDelete(userID uint, entity, id, label string)
	LogRejected(userID uint, entity, id, operation string, err error)
}

type noopAuditor struct{}

func (noopAuditor) LogCreate(uint, string, string, string) {}
func (noopAuditor) LogUpdate(uint, string, string, string) {}
func (noopAuditor) LogDelete(uint, string, string, string) {}
func (noopAuditor) LogRejected(uint, string, string, string, error) {}

func auditorOrNoop(a CatalogAuditor) CatalogAuditor {
	if a == nil {
		return noopAuditor{}
	}
	return a
}

// Stores groups every catalog store.
type Stores struct {
	Genres     GenreStore
	Publishers PublisherStore
	Languages  LanguageStore
	Authors    AuthorStore
	Books      BookStore
	Instances  InstanceStore
}
