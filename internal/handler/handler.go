// Package handler provides the HTTP handlers of the console.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bookbase/bookbase-admin/internal/bookbase"
	"github.com/bookbase/bookbase-admin/internal/cache"
	"github.com/bookbase/bookbase-admin/internal/listing"
	"github.com/bookbase/bookbase-admin/internal/metrics"
	"github.com/bookbase/bookbase-admin/internal/model"
	"github.com/bookbase/bookbase-admin/internal/repository"
	"github.com/bookbase/bookbase-admin/internal/service"
	"github.com/bookbase/bookbase-admin/internal/session"
)

// CoverSource streams book covers from the API.
type CoverSource interface {
	FetchCover(ctx context.Context, name string) (*bookbase.Cover, error)
}

// Sequencers returns the load counter of a list view for a session.
type Sequencers func(sessionID, view string) listing.Sequencer

// Options holds the dependencies of the console handlers.
type Options struct {
	Logger  *slog.Logger
	Auth    *service.AuthService
	Catalog *service.CatalogService
	Loans   *service.LoanService
	Covers  CoverSource
	Audit   repository.AuditLog
	Metrics metrics.Recorder

	// Views keeps list state between requests, Sequencers orders its loads.
	Views      listing.ViewStore
	Sequencers Sequencers

	PageSize      int
	MaxCoverSize  int64
	CookieName    string
	SecureCookies bool
}

// Handler serves the console pages.
type Handler struct {
	logger  *slog.Logger
	auth    *service.AuthService
	catalog *service.CatalogService
	loans   *service.LoanService
	covers  CoverSource
	audit   repository.AuditLog

	books    *listView[model.Book]
	loanList *listView[model.Loan]
	pages    *renderer

	maxCoverSize  int64
	cookieName    string
	secureCookies bool
	now           func() time.Time
}

// New creates a Handler. Page templates are parsed here, so a broken
// template fails at startup.
func New(opts Options) (*Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	views := opts.Views
	if views == nil {
		views = listing.NewMemoryViewStore()
	}
	seqs := opts.Sequencers
	if seqs == nil {
		seqs = memorySequencers()
	}
	audit := opts.Audit
	if audit == nil {
		audit = repository.NoopAuditLog{}
	}
	maxCover := opts.MaxCoverSize
	if maxCover <= 0 {
		maxCover = service.DefaultMaxCoverSize
	}
	cookieName := opts.CookieName
	if cookieName == "" {
		cookieName = "bookbase_session"
	}

	h := &Handler{
		logger:        logger,
		auth:          opts.Auth,
		catalog:       opts.Catalog,
		loans:         opts.Loans,
		covers:        opts.Covers,
		audit:         audit,
		maxCoverSize:  maxCover,
		cookieName:    cookieName,
		secureCookies: opts.SecureCookies,
		now:           time.Now,
	}

	h.books = &listView[model.Book]{
		name:     cache.ViewBooks,
		load:     opts.Catalog.LoadBooks,
		store:    views,
		seqs:     seqs,
		pageSize: opts.PageSize,
		metrics:  recorder,
		logger:   logger,
	}
	h.loanList = &listView[model.Loan]{
		name:     cache.ViewLoans,
		load:     opts.Loans.LoadLoans,
		store:    views,
		seqs:     seqs,
		pageSize: opts.PageSize,
		metrics:  recorder,
		logger:   logger,
	}

	pages, err := newRenderer(h.templateFuncs())
	if err != nil {
		return nil, err
	}
	h.pages = pages
	return h, nil
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "notfound.html", pageData{Title: "Página não encontrada"})
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Método não permitido.", http.StatusMethodNotAllowed)
}

// Home sends the operator to the catalog, or to the login page without a
// session.
// GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()) == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/books", http.StatusSeeOther)
}

// currentSession returns the session attached by the session middleware.
// Console routes are mounted behind RequireSession, so it is never nil there.
func currentSession(r *http.Request) *session.Session {
	if s := session.FromContext(r.Context()); s != nil {
		return s
	}
	return &session.Session{}
}

// pageParam parses a 1-based page number, defaulting to 1.
func pageParam(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// idParam parses a positive row id.
func idParam(raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
