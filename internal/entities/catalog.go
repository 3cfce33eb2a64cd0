package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model names used by the admin registry, audit records and errors.
const (
	ModelGenre        = "genre"
	ModelPublisher    = "publisher"
	ModelLanguage     = "language"
	ModelAuthor       = "author"
	ModelBook         = "book"
	ModelBookInstance = "bookinstance"
)

// Table names of the catalog schema.
const (
	TableGenres        = "genres"
	TablePublishers    = "publishers"
	TableLanguages     = "languages"
	TableAuthors       = "authors"
	TableBooks         = "books"
	TableBookGenres    = "book_genres"
	TableBookInstances = "book_instances"
)

// MaxDisplayGenres is how many genre names Book.DisplayGenre joins.
const MaxDisplayGenres = 3

type Genre struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:200;not null" json:"name" validate:"notblank,max=200"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Genre) TableName() string { return TableGenres }

func NewGenre(name string) (*Genre, error) {
	g := &Genre{Name: strings.TrimSpace(name)}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Genre) Validate() error { return validateStruct(ModelGenre, g) }

func (g Genre) String() string { return g.Name }

type Publisher struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null;index" json:"name" validate:"notblank,max=200"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Publisher) TableName() string { return TablePublishers }

func NewPublisher(name string) (*Publisher, error) {
	p := &Publisher{Name: strings.TrimSpace(name)}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) Validate() error { return validateStruct(ModelPublisher, p) }

func (p Publisher) String() string { return p.Name }

type Language struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;index" json:"name" validate:"notblank,max=100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Language) TableName() string { return TableLanguages }

func NewLanguage(name string) (*Language, error) {
	l := &Language{Name: strings.TrimSpace(name)}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Language) Validate() error { return validateStruct(ModelLanguage, l) }

func (l Language) String() string { return l.Name }

type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:100;not null" json:"first_name" validate:"notblank,max=100"`
	LastName  string    `gorm:"size:100;not null;index" json:"last_name" validate:"notblank,max=100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Author) TableName() string { return TableAuthors }

func NewAuthor(firstName, lastName string) (*Author, error) {
	a := &Author{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Author) Validate() error { return validateStruct(ModelAuthor, a) }

// String renders "last_name, first_name".
func (a Author) String() string {
	return a.LastName + ", " + a.FirstName
}

// AbsoluteURL is the canonical detail page of the author.
func (a Author) AbsoluteURL() string {
	return "/catalog/authors/" + strconv.FormatUint(uint64(a.ID), 10)
}

type Book struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null;index" json:"title" validate:"notblank,max=200"`
	Summary     string     `gorm:"size:1000;not null" json:"summary" validate:"notblank,max=1000"`
	ISBN        string     `gorm:"column:isbn;uniqueIndex;size:13;not null" json:"isbn" validate:"required,max=13,isbn_shape"`
	AuthorID    *uint      `gorm:"index" json:"author_id"`
	Author      *Author    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"author,omitempty" validate:"-"`
	LanguageID  *uint      `gorm:"index" json:"language_id"`
	Language    *Language  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"language,omitempty" validate:"-"`
	PublisherID *uint      `gorm:"index" json:"publisher_id"`
	Publisher   *Publisher `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"publisher,omitempty" validate:"-"`

	// Genres is kept in association order through book_genres.position.
	Genres []Genre `gorm:"-" json:"genres"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Book) TableName() string { return TableBooks }

// NewBook builds a book without relations. The ISBN is normalized first.
func NewBook(title, summary, isbn string) (*Book, error) {
	b := &Book{
		Title:   strings.TrimSpace(title),
		Summary: strings.TrimSpace(summary),
		ISBN:    NormalizeISBN(isbn),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Book) Validate() error { return validateStruct(ModelBook, b) }

func (b Book) String() string { return b.Title }

// AbsoluteURL is the canonical detail page of the book.
func (b Book) AbsoluteURL() string {
	return "/catalog/books/" + strconv.FormatUint(uint64(b.ID), 10)
}

// DisplayGenre joins the names of the first three genres with ", ".
func (b Book) DisplayGenre() string {
	n := len(b.Genres)
	if n > MaxDisplayGenres {
		n = MaxDisplayGenres
	}
	names := make([]string, 0, n)
	for _, g := range b.Genres[:n] {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

// GenreIDs returns the ids of the loaded genres in association order.
func (b Book) GenreIDs() []uint {
	ids := make([]uint, 0, len(b.Genres))
	for _, g := range b.Genres {
		ids = append(ids, g.ID)
	}
	return ids
}

func (b Book) MarshalJSON() ([]byte, error) {
	type book Book
	return json.Marshal(struct {
		book
		DisplayGenre string `json:"display_genre"`
	}{book(b), b.DisplayGenre()})
}

// BookGenre links a book to a genre. Position preserves the order in which
// genres were assigned.
type BookGenre struct {
	BookID   uint   `gorm:"primaryKey;autoIncrement:false" json:"book_id"`
	GenreID  uint   `gorm:"primaryKey;autoIncrement:false;index" json:"genre_id"`
	Position int    `gorm:"not null;default:0" json:"position"`
	Book     *Book  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Genre    *Genre `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (BookGenre) TableName() string { return TableBookGenres }

type BookInstance struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BookID    uint       `gorm:"not null;index" json:"book_id"`
	Book      *Book      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"book,omitempty" validate:"-"`
	Imprint   string     `gorm:"size:200;not null" json:"imprint" validate:"notblank,max=200"`
	DueBack   *Date      `gorm:"index" json:"due_back"`
	Status    LoanStatus `gorm:"size:20;not null;default:maintenance;check:chk_book_instances_status,status IN ('maintenance','on-loan','available','reserved')" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (BookInstance) TableName() string { return TableBookInstances }

// NewBookInstance builds a copy of a book with a fresh random id. A blank
// status yields DefaultLoanStatus.
func NewBookInstance(bookID uint, imprint string, dueBack *Date, status string) (*BookInstance, error) {
	parsed, err := ParseLoanStatus(status)
	if err != nil {
		return nil, err
	}
	bi := &BookInstance{
		ID:      uuid.New(),
		BookID:  bookID,
		Imprint: strings.TrimSpace(imprint),
		DueBack: dueBack,
		Status:  parsed,
	}
	if err := bi.Validate(); err != nil {
		return nil, err
	}
	return bi, nil
}

func (bi *BookInstance) Validate() error {
	if !bi.Status.Valid() {
		return &ConstraintError{
			Kind:   ErrInvalidEnumValue,
			Entity: ModelBookInstance,
			Field:  "status",
			Value:  string(bi.Status),
		}
	}
	if bi.BookID == 0 {
		return NewValidationError(ModelBookInstance, "book", "This field is required.")
	}
	return validateStruct(ModelBookInstance, bi)
}

// BeforeCreate assigns a random id when none was supplied.
func (bi *BookInstance) BeforeCreate(tx *gorm.DB) error {
	if bi.ID == uuid.Nil {
		bi.ID = uuid.New()
	}
	return nil
}

// String renders "id (book title)". The title is empty when the book is not loaded.
func (bi BookInstance) String() string {
	title := ""
	if bi.Book != nil {
		title = bi.Book.Title
	}
	return fmt.Sprintf("%s (%s)", bi.ID, title)
}

// IsOverdue reports whether the copy is on loan past its due date.
func (bi BookInstance) IsOverdue(today Date) bool {
	return bi.Status == LoanStatusOnLoan && bi.DueBack != nil && bi.DueBack.IsBefore(today)
}
