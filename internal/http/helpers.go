package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/listing"
	"github.com/mrlokans/locallibrary/internal/logging"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeValidation  = "validation_error"
	CodeInvalidEnum = "invalid_enum_value"
	CodeUnique      = "uniqueness_violation"
	CodeRestricted  = "referential_restriction"
	CodeNotFound    = "not_found"
)

// ErrorResponse is the body of every API error. Details holds per-field
// messages for validation failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// storeErrors maps catalog error kinds to responses. Order matters only
// for errors matching several kinds, which none do today.
var storeErrors = []struct {
	kind   error
	status int
	code   string
}{
	{gorm.ErrRecordNotFound, http.StatusNotFound, CodeNotFound},
	{entities.ErrValidation, http.StatusBadRequest, CodeValidation},
	{entities.ErrInvalidEnumValue, http.StatusBadRequest, CodeInvalidEnum},
	{entities.ErrUniquenessViolation, http.StatusConflict, CodeUnique},
	{entities.ErrReferentialRestriction, http.StatusConflict, CodeRestricted},
}

func classify(err error) (int, string) {
	for _, e := range storeErrors {
		if errors.Is(err, e.kind) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, ""
}

// StatusForError is the HTTP status for a repository error.
func StatusForError(err error) int {
	status, _ := classify(err)
	return status
}

// GetUserID is 0 for anonymous requests and when auth is off.
func GetUserID(c *gin.Context) uint {
	return auth.GetUserID(c)
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: CodeNotFound})
}

// respondInternalError logs err and answers without it.
func respondInternalError(c *gin.Context, err error, op string) {
	logging.FromContext(c.Request.Context()).Error("internal error",
		"op", op, "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondStoreError answers a failed repository call on resource.
func respondStoreError(c *gin.Context, err error, resource string) {
	status, code := classify(err)
	switch status {
	case http.StatusNotFound:
		respondNotFound(c, resource)
	case http.StatusInternalServerError:
		respondInternalError(c, err, resource)
	default:
		body := ErrorResponse{Error: err.Error(), Code: code}
		if fields := entities.FieldErrors(err); fields != nil {
			body.Details = fields
		}
		c.JSON(status, body)
	}
}

// isConstraintError reports whether a write was refused by a catalog rule
// rather than failing.
func isConstraintError(err error) bool {
	switch _, code := classify(err); code {
	case CodeUnique, CodeRestricted, CodeInvalidEnum:
		return true
	}
	return false
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func parseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(raw, 10, 32)
	return uint(n), err == nil && n != 0
}

// parseIDParam reads a positive integer path parameter, answering 400
// when it is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, ok := parseID(c.Param(name))
	if !ok {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// parseOptionalQueryID reads an optional id filter; absent is nil.
func parseOptionalQueryID(c *gin.Context, name string) (*uint, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return nil, true
	}
	id, ok := parseID(raw)
	if !ok {
		respondBadRequest(c, "invalid "+name)
		return nil, false
	}
	return &id, true
}

// listParams reads page, page_size and q, clamped to the catalog limits.
func listParams(c *gin.Context, cfg config.Catalog) listing.Params {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	p := listing.Params{Page: page, PageSize: size, Search: c.Query("q")}
	return p.Normalize(cfg.PageSize, cfg.MaxPageSize)
}

func newPage[T any](items []T, total int64, p listing.Params) listing.Page[T] {
	if items == nil {
		items = []T{}
	}
	return listing.Page[T]{Items: items, Metadata: listing.CalculateMetadata(total, p)}
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
