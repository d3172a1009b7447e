package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/s0up4200/libgate/filter"
	"github.com/s0up4200/libgate/model"
	"github.com/s0up4200/libgate/opac"
	"github.com/s0up4200/libgate/watchlist"
)

// Library is the OPAC facade the API fronts. *opac.Service satisfies it.
type Library interface {
	Authenticate(ctx context.Context, creds model.Credentials) error
	Verify(ctx context.Context, creds model.Credentials) error
	Search(ctx context.Context, keyword string) ([]model.BookRecord, error)
	GetBook(ctx context.Context, bookID string) (model.BookDetail, error)
	Availability(ctx context.Context, bookID string) (bool, error)
	ListLoans(ctx context.Context, creds model.Credentials) ([]model.LoanRecord, error)
	Renew(ctx context.Context, creds model.Credentials, barcode, check string) (model.RenewOutcome, error)
}

var _ Library = (*opac.Service)(nil)

// Handler serves the /api/lib routes
type Handler struct {
	lib              Library
	watches          watchlist.Store
	filters          map[string]string
	perPage          int
	watchConcurrency int
	logger           zerolog.Logger
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithPerPage sets the search page size
func WithPerPage(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.perPage = n
		}
	}
}

// WithWatchConcurrency bounds parallel availability lookups for get_atten
func WithWatchConcurrency(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.watchConcurrency = n
		}
	}
}

// WithFilters registers named search filters
func WithFilters(filters map[string]string) HandlerOption {
	return func(h *Handler) {
		h.filters = filters
	}
}

// NewHandler wires the library and the watch list store
func NewHandler(lib Library, watches watchlist.Store, logger zerolog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		lib:              lib,
		watches:          watches,
		perPage:          20,
		watchConcurrency: watchlist.DefaultConcurrency,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type searchResponse struct {
	Meta    Meta               `json:"meta"`
	Results []model.BookRecord `json:"results"`
}

type renewRequest struct {
	Barcode string `json:"bar_code"`
	Check   string `json:"check"`
}

type watchRequest struct {
	Barcode string `json:"bid" binding:"required"`
	Title   string `json:"book" binding:"required"`
	BookID  string `json:"id" binding:"required"`
	Author  string `json:"author" binding:"required"`
}

type unwatchRequest struct {
	BookID string `json:"id" binding:"required"`
}

type watchView struct {
	Barcode string `json:"bid"`
	Title   string `json:"book"`
	BookID  string `json:"id"`
	Author  string `json:"author"`
	Avbl    string `json:"avbl"`
}

// login always starts a fresh OPAC session, so it reads basic auth itself
// instead of going through requireLibLogin
func (h *Handler) login(c *gin.Context) {
	creds, err := basicCredentials(c)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	if err := h.lib.Authenticate(c.Request.Context(), creds); err != nil {
		ErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) search(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("keyword"))
	if keyword == "" {
		ErrorResponse(c, fmt.Errorf("%w: keyword is required", errBadRequest))
		return
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ErrorResponse(c, fmt.Errorf("%w: page must be a number", errBadRequest))
			return
		}
		page = n
	}

	var f filter.Filter
	if expression := c.Query("filter"); expression != "" {
		if named, ok := h.filters[strings.ToLower(expression)]; ok {
			expression = named
		}
		compiled, err := filter.Compile(expression)
		if err != nil {
			ErrorResponse(c, err)
			return
		}
		f = compiled
	}

	books, err := h.lib.Search(c.Request.Context(), keyword)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	books = filter.Apply(f, books)

	results, meta := Paginate(books, page, h.perPage)
	c.JSON(http.StatusOK, searchResponse{Meta: meta, Results: results})
}

func (h *Handler) book(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		ErrorResponse(c, fmt.Errorf("%w: id is required", errBadRequest))
		return
	}

	detail, err := h.lib.GetBook(c.Request.Context(), id)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) loans(c *gin.Context) {
	loans, err := h.lib.ListLoans(c.Request.Context(), credentials(c))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *Handler) renew(c *gin.Context) {
	var req renewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, bindError(err))
		return
	}

	outcome, err := h.lib.Renew(c.Request.Context(), credentials(c), req.Barcode, req.Check)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) createWatch(c *gin.Context) {
	var req watchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, bindError(err))
		return
	}

	entry, err := h.watches.Add(c.Request.Context(), model.WatchEntry{
		StudentID: credentials(c).StudentID,
		Barcode:   req.Barcode,
		Title:     req.Title,
		BookID:    req.BookID,
		Author:    req.Author,
	})
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) listWatches(c *gin.Context) {
	ctx := c.Request.Context()

	entries, err := h.watches.List(ctx, credentials(c).StudentID)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	if len(entries) == 0 {
		ErrorResponse(c, watchlist.ErrNotFound)
		return
	}

	views, err := watchlist.Decorate(ctx, entries, h.lib.Availability, h.watchConcurrency, requestLog(c))
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	out := make([]watchView, 0, len(views))
	for _, v := range views {
		out = append(out, watchView{
			Barcode: v.Barcode,
			Title:   v.Title,
			BookID:  v.BookID,
			Author:  v.Author,
			Avbl:    v.Avbl(),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) deleteWatch(c *gin.Context) {
	var req unwatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, bindError(err))
		return
	}

	if err := h.watches.Remove(c.Request.Context(), credentials(c).StudentID, req.BookID); err != nil {
		ErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
