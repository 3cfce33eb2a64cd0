package admin

import (
	"fmt"
	"strconv"

	"github.com/mrlokans/locallibrary/internal/entities"
)

// EmptyValue is rendered for blank or missing column values.
const EmptyValue = "-"

// Display renders one changelist column of a catalog record.
func Display(obj any, column string) string {
	value := rawValue(obj, column)
	if value == "" {
		return EmptyValue
	}
	return value
}

// ObjectID returns the URL identifier of a catalog record.
func ObjectID(obj any) string {
	switch o := obj.(type) {
	case entities.Genre:
		return uintString(o.ID)
	case entities.Publisher:
		return uintString(o.ID)
	case entities.Language:
		return uintString(o.ID)
	case entities.Author:
		return uintString(o.ID)
	case entities.Book:
		return uintString(o.ID)
	case entities.BookInstance:
		return o.ID.String()
	case *entities.Genre:
		return ObjectID(*o)
	case *entities.Publisher:
		return ObjectID(*o)
	case *entities.Language:
		return ObjectID(*o)
	case *entities.Author:
		return ObjectID(*o)
	case *entities.Book:
		return ObjectID(*o)
	case *entities.BookInstance:
		return ObjectID(*o)
	}
	return ""
}

func rawValue(obj any, column string) string {
	if column == StrColumn {
		if s, ok := obj.(fmt.Stringer); ok {
			return s.String()
		}
		return ""
	}

	switch o := obj.(type) {
	case *entities.Genre, *entities.Publisher, *entities.Language, *entities.Author, *entities.Book, *entities.BookInstance:
		return rawValue(deref(o), column)
	case entities.Genre:
		if column == "name" {
			return o.Name
		}
	case entities.Publisher:
		if column == "name" {
			return o.Name
		}
	case entities.Language:
		if column == "name" {
			return o.Name
		}
	case entities.Author:
		switch column {
		case "first_name":
			return o.FirstName
		case "last_name":
			return o.LastName
		}
	case entities.Book:
		return bookValue(o, column)
	case entities.BookInstance:
		return instanceValue(o, column)
	}
	return ""
}

func bookValue(b entities.Book, column string) string {
	switch column {
	case "title":
		return b.Title
	case "summary":
		return b.Summary
	case "isbn":
		return b.ISBN
	case "author":
		if b.Author != nil {
			return b.Author.String()
		}
	case "language":
		if b.Language != nil {
			return b.Language.Name
		}
	case "publisher":
		if b.Publisher != nil {
			return b.Publisher.Name
		}
	case "display_genre", "genre":
		return b.DisplayGenre()
	}
	return ""
}

func instanceValue(bi entities.BookInstance, column string) string {
	switch column {
	case "id":
		return bi.ID.String()
	case "book":
		if bi.Book != nil {
			return bi.Book.Title
		}
	case "imprint":
		return bi.Imprint
	case "due_back":
		if bi.DueBack != nil {
			return bi.DueBack.String()
		}
	case "status":
		return bi.Status.Label()
	}
	return ""
}

func deref(obj any) any {
	switch o := obj.(type) {
	case *entities.Genre:
		return *o
	case *entities.Publisher:
		return *o
	case *entities.Language:
		return *o
	case *entities.Author:
		return *o
	case *entities.Book:
		return *o
	case *entities.BookInstance:
		return *o
	}
	return obj
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
