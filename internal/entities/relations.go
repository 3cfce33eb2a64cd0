package entities

// OnDelete is the policy applied to referencing rows when a referenced row
// is deleted.
type OnDelete string

const (
	OnDeleteCascade  OnDelete = "CASCADE"
	OnDeleteSetNull  OnDelete = "SET NULL"
	OnDeleteRestrict OnDelete = "RESTRICT"
)

// Relation is one foreign key of the catalog schema.
type Relation struct {
	Name   string   // e.g. "book.author"
	Table  string   // Referencing table
	Column string   // Referencing column
	Target string   // Referenced table
	Policy OnDelete // Applied when a Target row is deleted
}

// Relations lists every foreign key of the catalog. The same policies are
// declared on the gorm constraint tags so the store enforces them too.
var Relations = []Relation{
	{Name: "book.author", Table: TableBooks, Column: "author_id", Target: TableAuthors, Policy: OnDeleteSetNull},
	{Name: "book.language", Table: TableBooks, Column: "language_id", Target: TableLanguages, Policy: OnDeleteSetNull},
	{Name: "book.publisher", Table: TableBooks, Column: "publisher_id", Target: TablePublishers, Policy: OnDeleteSetNull},
	{Name: "book.genres", Table: TableBookGenres, Column: "book_id", Target: TableBooks, Policy: OnDeleteCascade},
	{Name: "genre.books", Table: TableBookGenres, Column: "genre_id", Target: TableGenres, Policy: OnDeleteCascade},
	{Name: "bookinstance.book", Table: TableBookInstances, Column: "book_id", Target: TableBooks, Policy: OnDeleteRestrict},
}

// RelationsTo returns the relations referencing target, restrictions first.
func RelationsTo(target string) []Relation {
	var restrict, rest []Relation
	for _, rel := range Relations {
		if rel.Target != target {
			continue
		}
		if rel.Policy == OnDeleteRestrict {
			restrict = append(restrict, rel)
		} else {
			rest = append(rest, rel)
		}
	}
	return append(restrict, rest...)
}
