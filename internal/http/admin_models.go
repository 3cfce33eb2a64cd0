package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/database/books"
	"github.com/mrlokans/locallibrary/internal/database/instances"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

// listQuery is a changelist request: paging, search and list filters.
type listQuery struct {
	listing.Params
	Statuses []entities.LoanStatus
	DueBack  listing.DateRange
}

// modelOps adapts one catalog store to the generic admin pages. Records
// are always passed around as pointers.
type modelOps struct {
	list   func(q listQuery) ([]any, int64, error)
	get    func(id string) (any, error)
	values func(obj any) url.Values
	save   func(id string, form url.Values) (any, error)
	remove func(id string) error
}

// parseUintID treats malformed ids as missing records.
func parseUintID(id string) (uint, error) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return uint(n), nil
}

func parseUUID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

// formID reads an optional foreign key from a select input.
func formID(entity, field, raw string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return nil, entities.NewValidationError(entity, field, "Select a valid choice.")
	}
	id := uint(n)
	return &id, nil
}

func pointers[T any](items []T) []any {
	out := make([]any, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}

func optionalIDString(id *uint) string {
	if id == nil {
		return ""
	}
	return uintString(*id)
}

func namedOps[T fmt.Stringer](store NamedStore[T], build func(uint, string) (*T, error)) *modelOps {
	return &modelOps{
		list: func(q listQuery) ([]any, int64, error) {
			items, total, err := store.List(q.Params)
			return pointers(items), total, err
		},
		get: func(id string) (any, error) {
			n, err := parseUintID(id)
			if err != nil {
				return nil, err
			}
			return store.Get(n)
		},
		values: func(obj any) url.Values {
			return url.Values{"name": {obj.(*T).String()}}
		},
		save: func(id string, form url.Values) (any, error) {
			var n uint
			if id != "" {
				var err error
				if n, err = parseUintID(id); err != nil {
					return nil, err
				}
			}
			item, err := build(n, form.Get("name"))
			if err != nil {
				return nil, err
			}
			if n == 0 {
				err = store.Create(item)
			} else {
				err = store.Update(item)
			}
			return item, err
		},
		remove: func(id string) error {
			n, err := parseUintID(id)
			if err != nil {
				return err
			}
			return store.Delete(n)
		},
	}
}

func authorOps(store AuthorStore) *modelOps {
	return &modelOps{
		list: func(q listQuery) ([]any, int64, error) {
			items, total, err := store.List(q.Params)
			return pointers(items), total, err
		},
		get: func(id string) (any, error) {
			n, err := parseUintID(id)
			if err != nil {
				return nil, err
			}
			return store.Get(n)
		},
		values: func(obj any) url.Values {
			a := obj.(*entities.Author)
			return url.Values{"first_name": {a.FirstName}, "last_name": {a.LastName}}
		},
		save: func(id string, form url.Values) (any, error) {
			author, err := entities.NewAuthor(form.Get("first_name"), form.Get("last_name"))
			if err != nil {
				return nil, err
			}
			if id == "" {
				return author, store.Create(author)
			}
			if author.ID, err = parseUintID(id); err != nil {
				return nil, err
			}
			return author, store.Update(author)
		},
		remove: func(id string) error {
			n, err := parseUintID(id)
			if err != nil {
				return err
			}
			return store.Delete(n)
		},
	}
}

func bookOps(store BookStore) *modelOps {
	return &modelOps{
		list: func(q listQuery) ([]any, int64, error) {
			items, total, err := store.List(books.Filter{Params: q.Params})
			return pointers(items), total, err
		},
		get: func(id string) (any, error) {
			n, err := parseUintID(id)
			if err != nil {
				return nil, err
			}
			return store.Get(n)
		},
		values: func(obj any) url.Values {
			b := obj.(*entities.Book)
			genres := make([]string, 0, len(b.Genres))
			for _, g := range b.Genres {
				genres = append(genres, uintString(g.ID))
			}
			return url.Values{
				"title":     {b.Title},
				"summary":   {b.Summary},
				"isbn":      {b.ISBN},
				"author":    {optionalIDString(b.AuthorID)},
				"genre":     genres,
				"language":  {optionalIDString(b.LanguageID)},
				"publisher": {optionalIDString(b.PublisherID)},
			}
		},
		save: func(id string, form url.Values) (any, error) {
			book, err := entities.NewBook(form.Get("title"), form.Get("summary"), form.Get("isbn"))
			if err != nil {
				return nil, err
			}
			if book.AuthorID, err = formID(entities.ModelBook, "author", form.Get("author")); err != nil {
				return nil, err
			}
			if book.LanguageID, err = formID(entities.ModelBook, "language", form.Get("language")); err != nil {
				return nil, err
			}
			if book.PublisherID, err = formID(entities.ModelBook, "publisher", form.Get("publisher")); err != nil {
				return nil, err
			}
			var genreIDs []uint
			for _, raw := range form["genre"] {
				gid, err := formID(entities.ModelBook, "genre", raw)
				if err != nil {
					return nil, err
				}
				if gid != nil {
					genreIDs = append(genreIDs, *gid)
				}
			}

			if id == "" {
				return book, store.Create(book, genreIDs)
			}
			if book.ID, err = parseUintID(id); err != nil {
				return nil, err
			}
			return book, store.Update(book, genreIDs)
		},
		remove: func(id string) error {
			n, err := parseUintID(id)
			if err != nil {
				return err
			}
			return store.Delete(n)
		},
	}
}

func instanceOps(store InstanceStore) *modelOps {
	return &modelOps{
		list: func(q listQuery) ([]any, int64, error) {
			items, total, err := store.List(instances.Filter{
				Params:   q.Params,
				Statuses: q.Statuses,
				DueBack:  q.DueBack,
			})
			return pointers(items), total, err
		},
		get: func(id string) (any, error) {
			u, err := parseUUID(id)
			if err != nil {
				return nil, err
			}
			return store.Get(u)
		},
		values: func(obj any) url.Values {
			bi := obj.(*entities.BookInstance)
			due := ""
			if bi.DueBack != nil {
				due = bi.DueBack.String()
			}
			return url.Values{
				"id":       {bi.ID.String()},
				"book":     {uintString(bi.BookID)},
				"imprint":  {bi.Imprint},
				"due_back": {due},
				"status":   {string(bi.Status)},
			}
		},
		save: func(id string, form url.Values) (any, error) {
			due, err := parseDueBack(form.Get("due_back"))
			if err != nil {
				return nil, err
			}
			var bookID uint
			if ref, err := formID(entities.ModelBookInstance, "book", form.Get("book")); err != nil {
				return nil, err
			} else if ref != nil {
				bookID = *ref
			}
			item, err := entities.NewBookInstance(bookID, form.Get("imprint"), due, form.Get("status"))
			if err != nil {
				return nil, err
			}
			if id == "" {
				return item, store.Create(item)
			}
			if item.ID, err = parseUUID(id); err != nil {
				return nil, err
			}
			return item, store.Update(item)
		},
		remove: func(id string) error {
			u, err := parseUUID(id)
			if err != nil {
				return err
			}
			return store.Delete(u)
		},
	}
}

// newModelOps wires every catalog store, keyed by model name.
func newModelOps(s Stores) map[string]*modelOps {
	return map[string]*modelOps{
		entities.ModelGenre:        namedOps(s.Genres, buildGenre),
		entities.ModelPublisher:    namedOps(s.Publishers, buildPublisher),
		entities.ModelLanguage:     namedOps(s.Languages, buildLanguage),
		entities.ModelAuthor:       authorOps(s.Authors),
		entities.ModelBook:         bookOps(s.Books),
		entities.ModelBookInstance: instanceOps(s.Instances),
	}
}
