package admin

import (
	"github.com/mrlokans/locallibrary/internal/entities"
)

// Help texts shown under form inputs.
const (
	HelpGenreName     = "Enter a book genre (e.g. Science Fiction)"
	HelpPublisherName = "Enter the publisher name"
	HelpLanguageName  = "Enter the book's language"
	HelpSummary       = "Enter a brief description of the book"
	HelpISBN          = "13 Character ISBN number"
	HelpBookGenres    = "Select a genre for this book"
	HelpInstanceID    = "Unique ID for this particular book across the library"
	HelpStatus        = "Book availability"
)

// DefaultSite returns the catalog admin configuration. Each call builds a
// fresh copy.
func DefaultSite() *Site {
	site := NewSite()
	for _, m := range []*ModelAdmin{
		authorAdmin(),
		genreAdmin(),
		bookAdmin(),
		bookInstanceAdmin(),
		languageAdmin(),
		publisherAdmin(),
	} {
		if err := site.Register(m); err != nil {
			panic(err)
		}
	}
	return site
}

func authorAdmin() *ModelAdmin {
	return &ModelAdmin{
		Model:         entities.ModelAuthor,
		VerboseName:   "author",
		VerbosePlural: "authors",
		Path:          "authors",
		Fields: []FieldSpec{
			{Name: "first_name", Label: "First name", Widget: WidgetText, MaxLength: 100, Required: true, Editable: true},
			{Name: "last_name", Label: "Last name", Widget: WidgetText, MaxLength: 100, Required: true, Editable: true},
		},
		ListDisplay:  []string{"last_name", "first_name"},
		SearchFields: []string{"last_name", "first_name"},
		ViewOnSite:   true,
	}
}

func genreAdmin() *ModelAdmin {
	return &ModelAdmin{
		Model:         entities.ModelGenre,
		VerboseName:   "genre",
		VerbosePlural: "genres",
		Path:          "genres",
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Widget: WidgetText, MaxLength: 200, Required: true, HelpText: HelpGenreName, Editable: true},
		},
		SearchFields: []string{"name"},
	}
}

func publisherAdmin() *ModelAdmin {
	return &ModelAdmin{
		Model:         entities.ModelPublisher,
		VerboseName:   "publisher",
		VerbosePlural: "publishers",
		Path:          "publishers",
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Widget: WidgetText, MaxLength: 200, Required: true, HelpText: HelpPublisherName, Editable: true},
		},
		SearchFields: []string{"name"},
	}
}

func languageAdmin() *ModelAdmin {
	return &ModelAdmin{
		Model:         entities.ModelLanguage,
		VerboseName:   "language",
		VerbosePlural: "languages",
		Path:          "languages",
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Widget: WidgetText, MaxLength: 100, Required: true, HelpText: HelpLanguageName, Editable: true},
		},
		SearchFields: []string{"name"},
	}
}

func bookAdmin() *ModelAdmin {
	return &ModelAdmin{
		Model:         entities.ModelBook,
		VerboseName:   "book",
		VerbosePlural: "books",
		Path:          "books",
		Fields: []FieldSpec{
			{Name: "title", Label: "Title", Widget: WidgetText, MaxLength: 200, Required: true, Editable: true},
			{Name: "author", Label: "Author", Widget: WidgetSelect, Related: entities.ModelAuthor, Editable: true},
			{Name: "summary", Label: "Summary", Widget: WidgetTextarea, MaxLength: 1000, Required: true, HelpText: HelpSummary, Editable: true},
			{Name: "isbn", Label: "ISBN", Widget: WidgetText, MaxLength: 13, Required: true, HelpText: HelpISBN, Editable: true},
			{Name: "genre", Label: "Genre", Widget: WidgetMultiSelect, Related: entities.ModelGenre, HelpText: HelpBookGenres, Editable: true},
			{Name: "language", Label: "Language", Widget: WidgetSelect, Related: entities.ModelLanguage, Editable: true},
			{Name: "publisher", Label: "Publisher", Widget: WidgetSelect, Related: entities.ModelPublisher, Editable: true},
		},
		ListDisplay:  []string{"title", "author", "display_genre"},
		SearchFields: []string{"title", "isbn"},
		ViewOnSite:   true,
	}
}

func bookInstanceAdmin() *ModelAdmin {
	return &ModelAdmin{
		Model:         entities.ModelBookInstance,
		VerboseName:   "book instance",
		VerbosePlural: "book instances",
		Path:          "instances",
		Fields: []FieldSpec{
			{Name: "id", Label: "Id", Widget: WidgetReadonly, HelpText: HelpInstanceID},
			{Name: "book", Label: "Book", Widget: WidgetSelect, Related: entities.ModelBook, Required: true, Editable: true},
			{Name: "imprint", Label: "Imprint", Widget: WidgetText, MaxLength: 200, Required: true, Editable: true},
			{Name: "due_back", Label: "Due back", Widget: WidgetDate, Editable: true},
			{Name: "status", Label: "Status", Widget: WidgetSelect, HelpText: HelpStatus, Editable: true},
		},
		ListFilter:   []string{"status", "due_back"},
		SearchFields: []string{"imprint"},
		Fieldsets: []Fieldset{
			{Fields: []string{"book", "imprint", "id"}},
			{Name: "Availability", Fields: []string{"status", "due_back"}},
		},
	}
}
