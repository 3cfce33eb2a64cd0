package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/admin"
	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
)

// Flasher carries one-shot messages across a redirect.
// *auth.SessionManager implements it.
type Flasher interface {
	Flash(r *http.Request, message string)
	PopFlash(r *http.Request) string
}

// AdminController renders the HTML admin: index, changelists, change
// forms and delete confirmations for every registered model.
type AdminController struct {
	site    *admin.Site
	stores  Stores
	ops     map[string]*modelOps
	counter CatalogCounter
	auditor CatalogAuditor
	flash   Flasher
	catalog config.Catalog
	today   func() entities.Date
}

func NewAdminController(site *admin.Site, stores Stores, counter CatalogCounter, auditor CatalogAuditor, catalog config.Catalog) *AdminController {
	return &AdminController{
		site:    site,
		stores:  stores,
		ops:     newModelOps(stores),
		counter: counter,
		auditor: auditorOrNoop(auditor),
		catalog: catalog,
		today:   entities.Today,
	}
}

// WithFlash enables success messages after redirects.
func (ac *AdminController) WithFlash(f Flasher) *AdminController {
	ac.flash = f
	return ac
}

func (ac *AdminController) RegisterRoutes(group gin.IRoutes) {
	group.GET("/", ac.Index)
	group.GET("/:model", ac.Changelist)
	group.GET("/:model/add", ac.AddForm)
	group.POST("/:model/add", ac.Add)
	group.GET("/:model/:id/change", ac.ChangeForm)
	group.POST("/:model/:id/change", ac.Change)
	group.GET("/:model/:id/delete", ac.DeleteConfirm)
	group.POST("/:model/:id/delete", ac.Delete)
}

// IndexEntry is one model on the admin index.
type IndexEntry struct {
	Name  string
	Path  string
	Count int64
}

type changelistRow struct {
	ID    string
	URL   string
	Cells []string
}

type filterOption struct {
	Label    string
	URL      string
	Selected bool
}

type filterView struct {
	Label   string
	Options []filterOption
}

type formField struct {
	admin.FieldSpec
	Value    string
	Selected map[string]bool
	Choices  []admin.Choice
	Error    string
}

type formFieldset struct {
	Name   string
	Fields []formField
}

func adminURL(m *admin.ModelAdmin, parts ...string) string {
	u := auth.AdminHome + m.Path
	for _, p := range parts {
		u += "/" + p
	}
	return u
}

func (ac *AdminController) render(c *gin.Context, status int, name string, data gin.H) {
	data["Auth"] = GetAuthTemplateData(c)
	// Set by the CSRF and demo guards when they bounce a form post
	if note := c.Query("error"); note != "" {
		data["Notice"] = note
	}
	if ac.flash != nil {
		if msg := ac.flash.PopFlash(c.Request); msg != "" {
			data["Flash"] = msg
		}
	}
	c.HTML(status, name, data)
}

func (ac *AdminController) renderError(c *gin.Context, status int, message string) {
	ac.render(c, status, "admin_error", gin.H{
		"Title":   http.StatusText(status),
		"Message": message,
	})
}

func (ac *AdminController) notify(c *gin.Context, message string) {
	if ac.flash != nil {
		ac.flash.Flash(c.Request, message)
	}
}

// model resolves the :model segment or renders a 404.
func (ac *AdminController) model(c *gin.Context) (*admin.ModelAdmin, *modelOps, bool) {
	m, ok := ac.site.LookupPath(c.Param("model"))
	if !ok {
		ac.renderError(c, http.StatusNotFound, "Unknown model")
		return nil, nil, false
	}
	return m, ac.ops[m.Model], true
}

// fail renders a store error on an HTML page.
func (ac *AdminController) fail(c *gin.Context, err error, what string) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		respondInternalError(c, err, what)
		return
	}
	ac.renderError(c, status, err.Error())
}

// Index handles GET /admin/
func (ac *AdminController) Index(c *gin.Context) {
	counts, err := ac.counter.Counts()
	if err != nil {
		ac.fail(c, err, "catalog counts")
		return
	}
	models := ac.site.Models()
	entries := make([]IndexEntry, 0, len(models))
	for _, m := range models {
		entries = append(entries, IndexEntry{
			Name:  m.VerbosePlural,
			Path:  adminURL(m),
			Count: counts[m.Model],
		})
	}
	ac.render(c, http.StatusOK, "admin_index", gin.H{
		"Title":  "Site administration",
		"Models": entries,
	})
}

// filterURL keeps the current query and replaces one parameter. Paging
// restarts whenever a filter changes.
func filterURL(c *gin.Context, key, value string) string {
	q := c.Request.URL.Query()
	if value == "" {
		q.Del(key)
	} else {
		q.Set(key, value)
	}
	if key != "page" {
		q.Del("page")
	}
	if len(q) == 0 {
		return c.Request.URL.Path
	}
	return c.Request.URL.Path + "?" + q.Encode()
}

func (ac *AdminController) listQuery(c *gin.Context, m *admin.ModelAdmin) (listQuery, error) {
	q := listQuery{Params: listParams(c, ac.catalog)}
	if m.HasFilter("status") {
		for _, raw := range c.QueryArray("status") {
			if raw == "" {
				continue
			}
			status, err := entities.ParseLoanStatus(raw)
			if err != nil {
				return q, err
			}
			q.Statuses = append(q.Statuses, status)
		}
	}
	if m.HasFilter("due_back") {
		rng, err := admin.DateRangeFor(c.Query("due_back"), ac.today())
		if err != nil {
			return q, entities.NewValidationError(m.Model, "due_back", err.Error())
		}
		q.DueBack = rng
	}
	return q, nil
}

// Changelist handles GET /admin/:model
func (ac *AdminController) Changelist(c *gin.Context) {
	m, ops, ok := ac.model(c)
	if !ok {
		return
	}
	q, err := ac.listQuery(c, m)
	if err != nil {
		ac.renderError(c, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := ops.list(q)
	if err != nil {
		ac.fail(c, err, "list "+m.Model)
		return
	}

	columns := m.EffectiveListDisplay()
	labels := make([]string, len(columns))
	for i, col := range columns {
		labels[i] = m.ColumnLabel(col)
	}
	rows := make([]changelistRow, 0, len(items))
	for _, item := range items {
		id := admin.ObjectID(item)
		row := changelistRow{ID: id, URL: adminURL(m, id, "change")}
		for _, col := range columns {
			row.Cells = append(row.Cells, admin.Display(item, col))
		}
		rows = append(rows, row)
	}

	var filters []filterView
	for _, field := range m.ListFilter {
		current := c.Query(field)
		view := filterView{Label: m.ColumnLabel(field)}
		for _, choice := range admin.FilterChoices(field) {
			view.Options = append(view.Options, filterOption{
				Label:    choice.Label,
				URL:      filterURL(c, field, choice.Value),
				Selected: current == choice.Value,
			})
		}
		filters = append(filters, view)
	}

	meta := listing.CalculateMetadata(total, q.Params)
	data := gin.H{
		"Title":      "Select " + m.VerboseName + " to change",
		"Model":      m,
		"AddURL":     adminURL(m, "add"),
		"Columns":    labels,
		"Rows":       rows,
		"Filters":    filters,
		"Search":     q.Search,
		"Searchable": len(m.SearchFields) > 0,
		"Metadata":   meta,
	}
	if meta.CurrentPage > 1 {
		data["PrevURL"] = filterURL(c, "page", strconv.Itoa(meta.CurrentPage-1))
	}
	if meta.CurrentPage < meta.LastPage {
		data["NextURL"] = filterURL(c, "page", strconv.Itoa(meta.CurrentPage+1))
	}
	ac.render(c, http.StatusOK, "admin_changelist", data)
}

// choices lists the options of a related select.
func (ac *AdminController) choices(related string) ([]admin.Choice, error) {
	var out []admin.Choice
	add := func(id uint, label string) {
		out = append(out, admin.Choice{Value: uintString(id), Label: label})
	}
	switch related {
	case entities.ModelAuthor:
		items, err := ac.stores.Authors.All()
		for _, a := range items {
			add(a.ID, a.String())
		}
		return out, err
	case entities.ModelGenre:
		items, err := ac.stores.Genres.All()
		for _, g := range items {
			add(g.ID, g.String())
		}
		return out, err
	case entities.ModelLanguage:
		items, err := ac.stores.Languages.All()
		for _, l := range items {
			add(l.ID, l.String())
		}
		return out, err
	case entities.ModelPublisher:
		items, err := ac.stores.Publishers.All()
		for _, p := range items {
			add(p.ID, p.String())
		}
		return out, err
	case entities.ModelBook:
		items, err := ac.stores.Books.All()
		for _, b := range items {
			add(b.ID, b.String())
		}
		return out, err
	}
	return nil, nil
}

func (ac *AdminController) buildForm(m *admin.ModelAdmin, values url.Values, errs map[string]string) ([]formFieldset, error) {
	var out []formFieldset
	for _, fs := range m.EffectiveFieldsets() {
		set := formFieldset{Name: fs.Name}
		for _, name := range fs.Fields {
			spec, ok := m.Field(name)
			if !ok {
				continue
			}
			field := formField{
				FieldSpec: spec,
				Value:     values.Get(name),
				Selected:  map[string]bool{},
				Error:     errs[name],
			}
			for _, v := range values[name] {
				field.Selected[v] = true
			}
			switch {
			case spec.Related != "":
				choices, err := ac.choices(spec.Related)
				if err != nil {
					return nil, err
				}
				field.Choices = choices
			case name == "status":
				field.Choices = admin.StatusChoices()
			}
			set.Fields = append(set.Fields, field)
		}
		out = append(out, set)
	}
	return out, nil
}

// renderForm shows the change form, with field errors after a rejected save.
func (ac *AdminController) renderForm(c *gin.Context, status int, m *admin.ModelAdmin, id, label string, values url.Values, saveErr error) {
	errs := entities.FieldErrors(saveErr)
	fieldsets, err := ac.buildForm(m, values, errs)
	if err != nil {
		ac.fail(c, err, "form choices")
		return
	}

	data := gin.H{
		"Model":     m,
		"Fieldsets": fieldsets,
		"ListURL":   adminURL(m),
	}
	if id == "" {
		data["Title"] = "Add " + m.VerboseName
		data["Action"] = adminURL(m, "add")
	} else {
		data["Title"] = "Change " + m.VerboseName
		data["Label"] = label
		data["Action"] = adminURL(m, id, "change")
		data["DeleteURL"] = adminURL(m, id, "delete")
		if m.ViewOnSite {
			data["ViewOnSiteURL"] = "/api/" + m.Path + "/" + id
		}
	}
	if saveErr != nil && len(errs) == 0 {
		data["Error"] = saveErr.Error()
	} else if saveErr != nil {
		data["Error"] = "Please correct the errors below."
	}
	ac.render(c, status, "admin_form", data)
}

// AddForm handles GET /admin/:model/add
func (ac *AdminController) AddForm(c *gin.Context) {
	m, _, ok := ac.model(c)
	if !ok {
		return
	}
	values := url.Values{}
	if _, hasStatus := m.Field("status"); hasStatus {
		values.Set("status", string(entities.LoanStatusMaintenance))
	}
	ac.renderForm(c, http.StatusOK, m, "", "", values, nil)
}

// Add handles POST /admin/:model/add
func (ac *AdminController) Add(c *gin.Context) {
	ac.save(c, "")
}

// ChangeForm handles GET /admin/:model/:id/change
func (ac *AdminController) ChangeForm(c *gin.Context) {
	m, ops, ok := ac.model(c)
	if !ok {
		return
	}
	obj, err := ops.get(c.Param("id"))
	if err != nil {
		ac.fail(c, err, "load "+m.Model)
		return
	}
	ac.renderForm(c, http.StatusOK, m, admin.ObjectID(obj), admin.Display(obj, admin.StrColumn), ops.values(obj), nil)
}

// Change handles POST /admin/:model/:id/change
func (ac *AdminController) Change(c *gin.Context) {
	ac.save(c, c.Param("id"))
}

func (ac *AdminController) save(c *gin.Context, id string) {
	m, ops, ok := ac.model(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		ac.renderError(c, http.StatusBadRequest, "invalid form")
		return
	}
	form := c.Request.PostForm
	userID := GetUserID(c)

	obj, err := ops.save(id, form)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ac.fail(c, err, "save "+m.Model)
			return
		}
		status := StatusForError(err)
		if status == http.StatusInternalServerError {
			respondInternalError(c, err, "save "+m.Model)
			return
		}
		if isConstraintError(err) {
			op := "create"
			if id != "" {
				op = "update"
			}
			ac.auditor.LogRejected(userID, m.Model, id, op, err)
		}
		ac.renderForm(c, status, m, id, "", form, err)
		return
	}

	objID := admin.ObjectID(obj)
	label := admin.Display(obj, admin.StrColumn)
	if id == "" {
		ac.auditor.LogCreate(userID, m.Model, objID, label)
		ac.notify(c, "The "+m.VerboseName+" \""+label+"\" was added successfully.")
	} else {
		ac.auditor.LogUpdate(userID, m.Model, objID, label)
		ac.notify(c, "The "+m.VerboseName+" \""+label+"\" was changed successfully.")
	}
	c.Redirect(http.StatusFound, adminURL(m))
}

// protectedCount reports how many copies block deleting a book.
func (ac *AdminController) protectedCount(m *admin.ModelAdmin, obj any) (int, error) {
	book, ok := obj.(*entities.Book)
	if !ok || m.Model != entities.ModelBook {
		return 0, nil
	}
	copies, err := ac.stores.Instances.ListForBook(book.ID)
	return len(copies), err
}

func (ac *AdminController) renderDelete(c *gin.Context, status int, m *admin.ModelAdmin, obj any, protected int) {
	id := admin.ObjectID(obj)
	ac.render(c, status, "admin_delete", gin.H{
		"Title":     "Are you sure?",
		"Model":     m,
		"Label":     admin.Display(obj, admin.StrColumn),
		"Action":    adminURL(m, id, "delete"),
		"ChangeURL": adminURL(m, id, "change"),
		"Protected": protected,
	})
}

// DeleteConfirm handles GET /admin/:model/:id/delete
func (ac *AdminController) DeleteConfirm(c *gin.Context) {
	m, ops, ok := ac.model(c)
	if !ok {
		return
	}
	obj, err := ops.get(c.Param("id"))
	if err != nil {
		ac.fail(c, err, "load "+m.Model)
		return
	}
	protected, err := ac.protectedCount(m, obj)
	if err != nil {
		ac.fail(c, err, "related copies")
		return
	}
	ac.renderDelete(c, http.StatusOK, m, obj, protected)
}

// Delete handles POST /admin/:model/:id/delete. A restricted delete
// renders the confirmation page again with the blocking objects.
func (ac *AdminController) Delete(c *gin.Context) {
	m, ops, ok := ac.model(c)
	if !ok {
		return
	}
	id := c.Param("id")
	obj, err := ops.get(id)
	if err != nil {
		ac.fail(c, err, "load "+m.Model)
		return
	}
	label := admin.Display(obj, admin.StrColumn)
	userID := GetUserID(c)

	if err := ops.remove(id); err != nil {
		if errors.Is(err, entities.ErrReferentialRestriction) {
			ac.auditor.LogRejected(userID, m.Model, id, "delete", err)
			var ce *entities.ConstraintError
			protected := 0
			if errors.As(err, &ce) {
				protected = int(ce.Count)
			}
			ac.renderDelete(c, http.StatusConflict, m, obj, protected)
			return
		}
		ac.fail(c, err, "delete "+m.Model)
		return
	}

	ac.auditor.LogDelete(userID, m.Model, admin.ObjectID(obj), label)
	ac.notify(c, "The "+m.VerboseName+" \""+label+"\" was deleted successfully.")
	c.Redirect(http.StatusFound, adminURL(m))
}
