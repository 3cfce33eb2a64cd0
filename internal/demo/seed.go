package demo

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/database/authors"
	"github.com/mrlokans/locallibrary/internal/database/books"
	"github.com/mrlokans/locallibrary/internal/database/genres"
	"github.com/mrlokans/locallibrary/internal/database/instances"
	"github.com/mrlokans/locallibrary/internal/database/languages"
	"github.com/mrlokans/locallibrary/internal/database/publishers"
	"github.com/mrlokans/locallibrary/internal/entities"
)

var ErrCatalogNotEmpty = errors.New("catalog already contains books")

// SeedResult counts the records created by Seed.
type SeedResult struct {
	Genres     int `json:"genres"`
	Languages  int `json:"languages"`
	Publishers int `json:"publishers"`
	Authors    int `json:"authors"`
	Books      int `json:"books"`
	Instances  int `json:"instances"`
}

type seedCopy struct {
	imprint string
	status  entities.LoanStatus
	dueIn   *int // days from today
}

type seedBook struct {
	title     string
	summary   string
	isbn      string
	author    [2]string
	language  string
	publisher string
	genres    []string
	copies    []seedCopy
}

func days(n int) *int { return &n }

var seedGenres = []string{"Fiction", "Science Fiction", "Fantasy", "Philosophy", "Adventure", "Gothic", "Satire"}

var seedLanguages = []string{"English", "French", "Russian", "German"}

var seedPublishers = []string{"Penguin Classics", "Oxford World's Classics", "Vintage"}

var seedBooks = []seedBook{
	{
		title:     "Frankenstein",
		summary:   "A young scientist creates a sapient creature in an unorthodox experiment and flees from what he has made.",
		isbn:      "9780141439471",
		author:    [2]string{"Mary", "Shelley"},
		language:  "English",
		publisher: "Penguin Classics",
		genres:    []string{"Gothic", "Science Fiction", "Fiction"},
		copies: []seedCopy{
			{"Penguin Classics, 2003", entities.LoanStatusAvailable, nil},
			{"Penguin Classics, 2003", entities.LoanStatusOnLoan, days(-5)},
			{"Penguin Classics, 2018", entities.LoanStatusOnLoan, days(10)},
		},
	},
	{
		title:     "The Time Machine",
		summary:   "A Victorian inventor travels to the year 802,701 and finds humanity divided into two species.",
		isbn:      "9780141439976",
		author:    [2]string{"H. G.", "Wells"},
		language:  "English",
		publisher: "Penguin Classics",
		genres:    []string{"Science Fiction", "Adventure"},
		copies: []seedCopy{
			{"Penguin Classics, 2005", entities.LoanStatusReserved, days(3)},
			{"Penguin Classics, 2005", entities.LoanStatusMaintenance, nil},
		},
	},
	{
		title:     "The War of the Worlds",
		summary:   "Martians invade southern England and the narrator struggles to survive the fall of London.",
		isbn:      "9780141441030",
		author:    [2]string{"H. G.", "Wells"},
		language:  "English",
		publisher: "Penguin Classics",
		genres:    []string{"Science Fiction"},
		copies: []seedCopy{
			{"Penguin Classics, 2005", entities.LoanStatusAvailable, nil},
		},
	},
	{
		title:     "Twenty Thousand Leagues Under the Seas",
		summary:   "Professor Aronnax is held aboard Captain Nemo's submarine Nautilus on a voyage around the world.",
		isbn:      "9780199539277",
		author:    [2]string{"Jules", "Verne"},
		language:  "French",
		publisher: "Oxford World's Classics",
		genres:    []string{"Adventure", "Science Fiction"},
		copies: []seedCopy{
			{"Oxford World's Classics, 2009", entities.LoanStatusOnLoan, days(-12)},
			{"Oxford World's Classics, 2009", entities.LoanStatusAvailable, nil},
		},
	},
	{
		title:     "Crime and Punishment",
		summary:   "A destitute former student in Saint Petersburg murders a pawnbroker and wrestles with the consequences.",
		isbn:      "9780140449136",
		author:    [2]string{"Fyodor", "Dostoevsky"},
		language:  "Russian",
		publisher: "Penguin Classics",
		genres:    []string{"Fiction", "Philosophy"},
		copies: []seedCopy{
			{"Penguin Classics, 2003", entities.LoanStatusOnLoan, days(0)},
		},
	},
	{
		title:     "Candide",
		summary:   "A sheltered young man is taught that all is for the best and then meets the world.",
		isbn:      "9780140440041",
		author:    [2]string{"François-Marie", "Voltaire"},
		language:  "French",
		publisher: "Penguin Classics",
		genres:    []string{"Satire", "Philosophy", "Fiction", "Adventure"},
		copies: []seedCopy{
			{"Penguin Classics, 1950", entities.LoanStatusAvailable, nil},
		},
	},
	{
		title:     "Thus Spoke Zarathustra",
		summary:   "A philosophical novel following the prophet Zarathustra as he descends from the mountains to teach.",
		isbn:      "9780140441185",
		author:    [2]string{"Friedrich", "Nietzsche"},
		language:  "German",
		publisher: "Vintage",
		genres:    []string{"Philosophy"},
	},
	{
		title:     "Alice's Adventures in Wonderland",
		summary:   "A girl falls down a rabbit hole into a fantasy world of peculiar creatures.",
		isbn:      "9780141439761",
		author:    [2]string{"Lewis", "Carroll"},
		language:  "English",
		genres:    []string{"Fantasy", "Fiction"},
		copies: []seedCopy{
			{"Penguin Classics, 2003", entities.LoanStatusOnLoan, days(-1)},
			{"Macmillan, 1865", entities.LoanStatusMaintenance, nil},
		},
	},
}

// Seed fills an empty catalog with public domain books. Due dates are
// relative to today so the catalog always holds overdue and upcoming loans.
func Seed(db *gorm.DB, today entities.Date) (*SeedResult, error) {
	result := &SeedResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		bookRepo := books.NewRepository(tx)
		count, err := bookRepo.Count()
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrCatalogNotEmpty
		}

		genreIDs, err := seedNamed(seedGenres, func(name string) (uint, error) {
			g, err := entities.NewGenre(name)
			if err != nil {
				return 0, err
			}
			if err := genres.NewRepository(tx).Create(g); err != nil {
				return 0, err
			}
			return g.ID, nil
		})
		if err != nil {
			return err
		}
		result.Genres = len(genreIDs)

		languageIDs, err := seedNamed(seedLanguages, func(name string) (uint, error) {
			l, err := entities.NewLanguage(name)
			if err != nil {
				return 0, err
			}
			if err := languages.NewRepository(tx).Create(l); err != nil {
				return 0, err
			}
			return l.ID, nil
		})
		if err != nil {
			return err
		}
		result.Languages = len(languageIDs)

		publisherIDs, err := seedNamed(seedPublishers, func(name string) (uint, error) {
			p, err := entities.NewPublisher(name)
			if err != nil {
				return 0, err
			}
			if err := publishers.NewRepository(tx).Create(p); err != nil {
				return 0, err
			}
			return p.ID, nil
		})
		if err != nil {
			return err
		}
		result.Publishers = len(publisherIDs)

		authorRepo := authors.NewRepository(tx)
		instanceRepo := instances.NewRepository(tx)
		authorIDs := make(map[[2]string]uint)

		for _, sb := range seedBooks {
			authorID, ok := authorIDs[sb.author]
			if !ok {
				a, err := entities.NewAuthor(sb.author[0], sb.author[1])
				if err != nil {
					return err
				}
				if err := authorRepo.Create(a); err != nil {
					return fmt.Errorf("author %s: %w", a, err)
				}
				authorID = a.ID
				authorIDs[sb.author] = authorID
				result.Authors++
			}

			book, err := entities.NewBook(sb.title, sb.summary, sb.isbn)
			if err != nil {
				return fmt.Errorf("book %q: %w", sb.title, err)
			}
			book.AuthorID = &authorID
			if id, ok := languageIDs[sb.language]; ok {
				book.LanguageID = &id
			}
			if id, ok := publisherIDs[sb.publisher]; ok {
				book.PublisherID = &id
			}

			ids := make([]uint, 0, len(sb.genres))
			for _, name := range sb.genres {
				ids = append(ids, genreIDs[name])
			}
			if err := bookRepo.Create(book, ids); err != nil {
				return fmt.Errorf("book %q: %w", sb.title, err)
			}
			result.Books++

			for _, sc := range sb.copies {
				var due *entities.Date
				if sc.dueIn != nil {
					d := today.AddDays(*sc.dueIn)
					due = &d
				}
				item, err := entities.NewBookInstance(book.ID, sc.imprint, due, string(sc.status))
				if err != nil {
					return err
				}
				if err := instanceRepo.Create(item); err != nil {
					return fmt.Errorf("copy of %q: %w", sb.title, err)
				}
				result.Instances++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("demo catalog seeded",
		"books", result.Books,
		"instances", result.Instances,
		"authors", result.Authors)
	return result, nil
}

func seedNamed(names []string, create func(string) (uint, error)) (map[string]uint, error) {
	ids := make(map[string]uint, len(names))
	for _, name := range names {
		id, err := create(name)
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", name, err)
		}
		ids[name] = id
	}
	return ids, nil
}
