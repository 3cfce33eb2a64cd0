// Package admin holds the static administrative-view configuration of the
// catalog: which columns each changelist shows, which filters it offers and
// how change forms are grouped into fieldsets.
//
// The tables are plain data. The HTTP layer reads them to render the admin
// pages and serves them as JSON under /api/admin/models.
package admin

import (
	"fmt"
	"strings"
)

// StrColumn is the pseudo-column that renders the record label.
const StrColumn = "__str__"

// Widget selects the form control used for a field.
type Widget string

const (
	WidgetText        Widget = "text"
	WidgetTextarea    Widget = "textarea"
	WidgetSelect      Widget = "select"
	WidgetMultiSelect Widget = "multiselect"
	WidgetDate        Widget = "date"
	WidgetReadonly    Widget = "readonly"
)

// FieldSpec describes one editable or displayable model field.
type FieldSpec struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Widget    Widget `json:"widget"`
	MaxLength int    `json:"max_length,omitempty"`
	Required  bool   `json:"required"`
	HelpText  string `json:"help_text,omitempty"`
	Related   string `json:"related,omitempty"` // Target model of select widgets
	Editable  bool   `json:"editable"`
}

// Fieldset is a named or unnamed group of form fields.
type Fieldset struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// Choice is one option of a select widget or list filter.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ModelAdmin is the admin configuration of one model.
type ModelAdmin struct {
	Model         string      `json:"model"`
	VerboseName   string      `json:"verbose_name"`
	VerbosePlural string      `json:"verbose_name_plural"`
	Path          string      `json:"path"` // URL segment, e.g. "books"
	Fields        []FieldSpec `json:"fields"`
	ListDisplay   []string    `json:"list_display,omitempty"`
	ListFilter    []string    `json:"list_filter,omitempty"`
	SearchFields  []string    `json:"search_fields,omitempty"`
	Fieldsets     []Fieldset  `json:"fieldsets,omitempty"`
	ViewOnSite    bool        `json:"view_on_site"`
}

// Field returns the definition of the named field.
func (m *ModelAdmin) Field(name string) (FieldSpec, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// EffectiveListDisplay falls back to the label column.
func (m *ModelAdmin) EffectiveListDisplay() []string {
	if len(m.ListDisplay) == 0 {
		return []string{StrColumn}
	}
	return m.ListDisplay
}

// EffectiveFieldsets falls back to one unnamed section holding every
// editable field in declaration order.
func (m *ModelAdmin) EffectiveFieldsets() []Fieldset {
	if len(m.Fieldsets) > 0 {
		return m.Fieldsets
	}
	fields := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.Editable {
			fields = append(fields, f.Name)
		}
	}
	return []Fieldset{{Fields: fields}}
}

// FormFields returns the field specs in fieldset order.
func (m *ModelAdmin) FormFields() []FieldSpec {
	var out []FieldSpec
	for _, fs := range m.EffectiveFieldsets() {
		for _, name := range fs.Fields {
			if f, ok := m.Field(name); ok {
				out = append(out, f)
			}
		}
	}
	return out
}

// ColumnLabel returns the changelist header of a list_display entry.
func (m *ModelAdmin) ColumnLabel(column string) string {
	switch column {
	case StrColumn:
		return capitalize(m.VerboseName)
	case "display_genre":
		return "Genre"
	}
	if f, ok := m.Field(column); ok {
		return f.Label
	}
	return capitalize(strings.ReplaceAll(column, "_", " "))
}

// HasFilter reports whether the changelist offers a filter on field.
func (m *ModelAdmin) HasFilter(field string) bool {
	for _, f := range m.ListFilter {
		if f == field {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Site is an ordered registry of model admins.
type Site struct {
	order  []string
	models map[string]*ModelAdmin
	byPath map[string]*ModelAdmin
}

func NewSite() *Site {
	return &Site{
		models: make(map[string]*ModelAdmin),
		byPath: make(map[string]*ModelAdmin),
	}
}

// Register adds a model admin. Registering a model twice is an error.
func (s *Site) Register(m *ModelAdmin) error {
	if _, exists := s.models[m.Model]; exists {
		return fmt.Errorf("model %q is already registered", m.Model)
	}
	if _, exists := s.byPath[m.Path]; exists {
		return fmt.Errorf("admin path %q is already registered", m.Path)
	}
	s.order = append(s.order, m.Model)
	s.models[m.Model] = m
	s.byPath[m.Path] = m
	return nil
}

// Lookup finds a model admin by model name.
func (s *Site) Lookup(model string) (*ModelAdmin, bool) {
	m, ok := s.models[model]
	return m, ok
}

// LookupPath finds a model admin by its URL segment.
func (s *Site) LookupPath(path string) (*ModelAdmin, bool) {
	m, ok := s.byPath[path]
	return m, ok
}

// Models returns the registered admins in registration order.
func (s *Site) Models() []*ModelAdmin {
	out := make([]*ModelAdmin, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.models[name])
	}
	return out
}
