package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/bookbase/bookbase-admin/internal/bookbase"
	"github.com/bookbase/bookbase-admin/internal/listing"
	"github.com/bookbase/bookbase-admin/internal/metrics"
	"github.com/bookbase/bookbase-admin/internal/model"
	"github.com/bookbase/bookbase-admin/internal/repository"
)

// DefaultMaxCoverSize matches the upload limit of the bookbase API.
const DefaultMaxCoverSize = 5 << 20

var coverExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// CatalogAPI is the part of the bookbase client used by CatalogService.
type CatalogAPI interface {
	ListBooks(ctx context.Context, p bookbase.ListParams) (bookbase.List[model.Book], error)
	CreateBook(ctx context.Context, book model.NewBook, cover *bookbase.Upload) (*model.Book, error)
	DeleteBook(ctx context.Context, id int) error
}

// CatalogService handles the book catalog pages.
type CatalogService struct {
	api          CatalogAPI
	audit        auditor
	metrics      metrics.Recorder
	maxCoverSize int64
}

// NewCatalogService creates a new CatalogService. maxCoverSize <= 0 uses
// DefaultMaxCoverSize.
func NewCatalogService(api CatalogAPI, audit repository.AuditLog, recorder metrics.Recorder, logger *slog.Logger, maxCoverSize int64) *CatalogService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if maxCoverSize <= 0 {
		maxCoverSize = DefaultMaxCoverSize
	}
	return &CatalogService{
		api:          api,
		audit:        newAuditor(audit, logger),
		metrics:      recorder,
		maxCoverSize: maxCoverSize,
	}
}

// LoadBooks is the listing.LoadFunc of the catalog page.
func (s *CatalogService) LoadBooks(ctx context.Context, q listing.Query, offset, limit int) (listing.Page[model.Book], error) {
	list, err := s.api.ListBooks(ctx, bookbase.ListParams{Skip: offset, Limit: limit, Search: q.Term})
	if err != nil {
		return listing.Page[model.Book]{}, err
	}
	return listing.Page[model.Book]{Items: list.Items, Total: list.Total}, nil
}

// RegisterBookInput carries the raw registration form.
type RegisterBookInput struct {
	Title       string
	Author      string
	ISBN        string
	Description string
	Category    string
	Year        string
	Pages       string
	Copies      string
	Cover       *bookbase.Upload
}

// RegisterBook validates the form and creates the book. Nothing is sent
// when validation fails.
func (s *CatalogService) RegisterBook(ctx context.Context, input RegisterBookInput) (*model.Book, error) {
	book, err := parseNewBook(input)
	if err != nil {
		return nil, err
	}

	cover := input.Cover
	if cover != nil && len(cover.Data) == 0 && cover.Filename == "" {
		cover = nil
	}
	if cover != nil {
		if err := ValidateCover(cover.Filename, int64(len(cover.Data)), s.maxCoverSize); err != nil {
			return nil, err
		}
	}

	created, err := s.api.CreateBook(ctx, book, cover)
	s.metrics.IncMutation("create_book", outcome(err))
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, model.AuditBookCreated, created.ID, created.Title)
	return created, nil
}

// DeleteBook deletes book id through the catalog fetcher so the row leaves
// the rendered page without a re-fetch.
func (s *CatalogService) DeleteBook(ctx context.Context, f *listing.Fetcher[model.Book], id int) error {
	title := ""
	for _, b := range f.State().Items {
		if b.ID == id {
			title = b.Title
			break
		}
	}

	err := f.Remove(ctx, id, func(ctx context.Context) error {
		return s.api.DeleteBook(ctx, id)
	})
	if errors.Is(err, listing.ErrConfirmBusy) {
		return err
	}
	// A stale reload still means the book was deleted.
	deleted := err == nil || errors.Is(err, listing.ErrStaleResponse)
	if !deleted {
		s.metrics.IncMutation("delete_book", outcomeError)
		return err
	}
	s.metrics.IncMutation("delete_book", outcomeSuccess)
	s.audit.record(ctx, model.AuditBookDeleted, id, title)
	return err
}

// ValidateCover checks the file extension and size of a cover upload.
func ValidateCover(filename string, size, maxSize int64) error {
	ext := strings.ToLower(path.Ext(filename))
	if !coverExtensions[ext] {
		return fmt.Errorf("%w: %s", ErrCoverType, path.Base(filename))
	}
	if size > maxSize {
		return ErrCoverTooLarge
	}
	return nil
}

func parseNewBook(input RegisterBookInput) (model.NewBook, error) {
	book := model.NewBook{
		Title:       strings.TrimSpace(input.Title),
		Author:      strings.TrimSpace(input.Author),
		ISBN:        strings.TrimSpace(input.ISBN),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
	}
	if book.Title == "" || book.Author == "" || book.ISBN == "" {
		return model.NewBook{}, ErrMissingFields
	}

	var err error
	if book.Year, err = parseCount(input.Year); err != nil {
		return model.NewBook{}, err
	}
	if book.Pages, err = parseCount(input.Pages); err != nil {
		return model.NewBook{}, err
	}
	if book.Copies, err = parseCount(input.Copies); err != nil {
		return model.NewBook{}, err
	}
	if book.Copies == 0 {
		book.Copies = 1
	}
	return book, nil
}

// parseCount parses a non-negative integer form field. Blank is zero.
func parseCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return n, nil
}
