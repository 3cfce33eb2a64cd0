package admin

import (
	"fmt"
	"time"

	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

// Date filter buckets offered for date columns.
const (
	DateAny       = ""
	DateToday     = "today"
	DatePast7Days = "past_7_days"
	DateThisMonth = "this_month"
	DateThisYear  = "this_year"
	DateNoDate    = "no_date"
	DateHasDate   = "has_date"
)

var dateBuckets = []Choice{
	{Value: DateAny, Label: "Any date"},
	{Value: DateToday, Label: "Today"},
	{Value: DatePast7Days, Label: "Past 7 days"},
	{Value: DateThisMonth, Label: "This month"},
	{Value: DateThisYear, Label: "This year"},
	{Value: DateNoDate, Label: "No date"},
	{Value: DateHasDate, Label: "Has date"},
}

// DateBuckets returns the date filter choices in display order.
func DateBuckets() []Choice {
	return append([]Choice(nil), dateBuckets...)
}

// StatusChoices returns the loan status choices in display order.
func StatusChoices() []Choice {
	statuses := entities.LoanStatuses()
	out := make([]Choice, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Choice{Value: string(s), Label: s.Label()})
	}
	return out
}

// FilterChoices returns the choices of a list filter, prefixed with "All"
// for choice filters.
func FilterChoices(field string) []Choice {
	switch field {
	case "status":
		return append([]Choice{{Value: "", Label: "All"}}, StatusChoices()...)
	case "due_back":
		return DateBuckets()
	}
	return nil
}

// DateRangeFor converts a bucket into a range relative to today.
func DateRangeFor(bucket string, today entities.Date) (listing.DateRange, error) {
	tomorrow := today.AddDays(1)
	y, m, _ := today.Date()

	switch bucket {
	case DateAny:
		return listing.DateRange{}, nil
	case DateToday:
		return bounded(today, tomorrow), nil
	case DatePast7Days:
		return bounded(today.AddDays(-7), tomorrow), nil
	case DateThisMonth:
		first := entities.NewDate(y, m, 1)
		return bounded(first, entities.DateOf(first.AddDate(0, 1, 0))), nil
	case DateThisYear:
		return bounded(entities.NewDate(y, time.January, 1), entities.NewDate(y+1, time.January, 1)), nil
	case DateNoDate:
		isNull := true
		return listing.DateRange{IsNull: &isNull}, nil
	case DateHasDate:
		isNull := false
		return listing.DateRange{IsNull: &isNull}, nil
	}
	return listing.DateRange{}, fmt.Errorf("unknown date filter %q", bucket)
}

func bounded(from, to entities.Date) listing.DateRange {
	return listing.DateRange{From: &from, To: &to}
}
