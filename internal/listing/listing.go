// Package listing holds paging, search and date-range parameters shared by
// the catalog repositories and the HTTP layer.
package listing

import (
	"math"
	"strings"

	"github.com/mrlokans/locallibrary/internal/entities"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Params selects one page of a listing.
type Params struct {
	Page     int    // 1-indexed
	PageSize int    // Records per page
	Search   string // Free-text filter applied to the model's search fields
}

// Normalize clamps Page and PageSize into range.
func (p Params) Normalize(defaultSize, maxSize int) Params {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultSize
	}
	if p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

// Limit returns the SQL LIMIT value derived from PageSize.
func (p Params) Limit() int { return p.PageSize }

// Offset returns the SQL OFFSET value derived from Page and PageSize.
func (p Params) Offset() int { return (p.Page - 1) * p.PageSize }

// SearchPattern returns a LIKE pattern for Search, or "" when no search was given.
func (p Params) SearchPattern() string {
	if p.Search == "" {
		return ""
	}
	return "%" + p.Search + "%"
}

// Metadata contains pagination information returned alongside list responses.
type Metadata struct {
	CurrentPage  int   `json:"current_page"`
	PageSize     int   `json:"page_size"`
	FirstPage    int   `json:"first_page"`
	LastPage     int   `json:"last_page"`
	TotalRecords int64 `json:"total_records"`
}

// CalculateMetadata computes page metadata from the total record count.
func CalculateMetadata(totalRecords int64, p Params) Metadata {
	if totalRecords == 0 {
		return Metadata{CurrentPage: p.Page, PageSize: p.PageSize, FirstPage: 1, LastPage: 1}
	}
	return Metadata{
		CurrentPage:  p.Page,
		PageSize:     p.PageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(p.PageSize))),
		TotalRecords: totalRecords,
	}
}

// HasNext reports whether a later page exists.
func (m Metadata) HasNext() bool { return m.CurrentPage < m.LastPage }

// HasPrevious reports whether an earlier page exists.
func (m Metadata) HasPrevious() bool { return m.CurrentPage > m.FirstPage }

// Page is one page of results.
type Page[T any] struct {
	Items    []T      `json:"items"`
	Metadata Metadata `json:"metadata"`
}

// DateRange filters a nullable date column. From is inclusive, To is
// exclusive. IsNull, when set, selects rows with (true) or without (false)
// a value and takes precedence over the bounds.
type DateRange struct {
	From   *entities.Date
	To     *entities.Date
	IsNull *bool
}

// Empty reports whether the range filters nothing.
func (r DateRange) Empty() bool {
	return r.From == nil && r.To == nil && r.IsNull == nil
}
