package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bookbase/bookbase-admin/internal/bookbase"
	"github.com/bookbase/bookbase-admin/internal/listing"
	"github.com/bookbase/bookbase-admin/internal/metrics"
	"github.com/bookbase/bookbase-admin/internal/model"
	"github.com/bookbase/bookbase-admin/internal/repository"
)

const (
	// pickerBookLimit is how many books the loan form offers.
	pickerBookLimit = 50
	// enrichConcurrency caps detail requests in flight for one page.
	enrichConcurrency = 8
	dateLayout        = "2006-01-02"
)

// LoanAPI is the part of the bookbase client used by LoanService.
type LoanAPI interface {
	ListLoans(ctx context.Context, p bookbase.LoanListParams) (bookbase.List[model.Loan], error)
	CreateLoan(ctx context.Context, loan model.NewLoan) (*model.Loan, error)
	ReturnLoan(ctx context.Context, id int) (*model.Loan, error)
	GetUser(ctx context.Context, id int) (*model.User, error)
	GetBook(ctx context.Context, id int) (*model.Book, error)
	ListUsers(ctx context.Context, search string) ([]model.User, error)
	ListBooks(ctx context.Context, p bookbase.ListParams) (bookbase.List[model.Book], error)
}

// LoanService handles the loan pages.
type LoanService struct {
	api     LoanAPI
	audit   auditor
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewLoanService creates a new LoanService.
func NewLoanService(api LoanAPI, audit repository.AuditLog, recorder metrics.Recorder, logger *slog.Logger) *LoanService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoanService{
		api:     api,
		audit:   newAuditor(audit, logger),
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// LoadLoans is the listing.LoadFunc of the loan list page. Every row is
// enriched with its user and book details; a failed detail request leaves
// that detail empty.
func (s *LoanService) LoadLoans(ctx context.Context, q listing.Query, offset, limit int) (listing.Page[model.Loan], error) {
	list, err := s.api.ListLoans(ctx, bookbase.LoanListParams{
		ListParams: bookbase.ListParams{Skip: offset, Limit: limit, Search: q.Term},
		Status:     q.Status,
	})
	if err != nil {
		return listing.Page[model.Loan]{}, err
	}

	s.enrich(ctx, list.Items)
	return listing.Page[model.Loan]{Items: list.Items, Total: list.Total}, nil
}

func (s *LoanService) enrich(ctx context.Context, loans []model.Loan) {
	var g errgroup.Group
	g.SetLimit(enrichConcurrency)

	for i := range loans {
		loan := &loans[i]
		g.Go(func() error {
			user, err := s.api.GetUser(ctx, loan.UserID)
			if err != nil {
				s.detailFailed(ctx, "user", loan.UserID, err)
				return nil
			}
			loan.User = user
			return nil
		})
		g.Go(func() error {
			book, err := s.api.GetBook(ctx, loan.BookID)
			if err != nil {
				s.detailFailed(ctx, "book", loan.BookID, err)
				return nil
			}
			loan.Book = book
			return nil
		})
	}
	_ = g.Wait()
}

func (s *LoanService) detailFailed(ctx context.Context, kind string, id int, err error) {
	s.logger.DebugContext(ctx, "loan detail unavailable",
		slog.String("kind", kind),
		slog.Int("id", id),
		slog.String("error", err.Error()),
	)
}

// ReturnLoan registers the return of loan id through the loan fetcher and
// merges the updated record into the rendered row.
func (s *LoanService) ReturnLoan(ctx context.Context, f *listing.Fetcher[model.Loan], id int) error {
	var returned model.Loan
	err := f.Replace(ctx, id,
		func(ctx context.Context) (model.Loan, error) {
			loan, err := s.api.ReturnLoan(ctx, id)
			if err != nil {
				return model.Loan{}, err
			}
			returned = *loan
			return *loan, nil
		},
		func(current, updated model.Loan) model.Loan {
			return current.Merge(updated)
		},
	)
	if errors.Is(err, listing.ErrConfirmBusy) {
		return err
	}
	s.metrics.IncMutation("return_loan", outcome(err))
	if err != nil {
		return err
	}

	s.audit.record(ctx, model.AuditLoanReturned, id, returned.BookTitle)
	return nil
}

// CreateLoanInput carries the raw loan form.
type CreateLoanInput struct {
	UserID  string
	BookID  string
	DueDate string
}

// CreateLoan validates the form and registers the loan. The due date is a
// calendar day that must not be before today; it is sent as UTC midnight.
func (s *LoanService) CreateLoan(ctx context.Context, input CreateLoanInput) (*model.Loan, error) {
	loan, err := s.parseNewLoan(input)
	if err != nil {
		return nil, err
	}

	created, err := s.api.CreateLoan(ctx, loan)
	s.metrics.IncMutation("create_loan", outcome(err))
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, model.AuditLoanCreated, created.ID,
		fmt.Sprintf("usuario %d, livro %d", loan.UserID, loan.BookID))
	return created, nil
}

func (s *LoanService) parseNewLoan(input CreateLoanInput) (model.NewLoan, error) {
	userRaw := strings.TrimSpace(input.UserID)
	bookRaw := strings.TrimSpace(input.BookID)
	dateRaw := strings.TrimSpace(input.DueDate)
	if userRaw == "" || bookRaw == "" || dateRaw == "" {
		return model.NewLoan{}, ErrMissingFields
	}

	userID, err := strconv.Atoi(userRaw)
	if err != nil || userID <= 0 {
		return model.NewLoan{}, fmt.Errorf("%w: usuario_id %q", ErrInvalidNumber, userRaw)
	}
	bookID, err := strconv.Atoi(bookRaw)
	if err != nil || bookID <= 0 {
		return model.NewLoan{}, fmt.Errorf("%w: livro_id %q", ErrInvalidNumber, bookRaw)
	}

	due, err := time.ParseInLocation(dateLayout, dateRaw, time.UTC)
	if err != nil {
		return model.NewLoan{}, fmt.Errorf("%w: %q", ErrInvalidDate, dateRaw)
	}
	if due.Before(s.Today()) {
		return model.NewLoan{}, ErrDueDateInPast
	}

	return model.NewLoan{UserID: userID, BookID: bookID, ExpectedReturn: due}, nil
}

// Today is the earliest accepted due date, as UTC midnight.
func (s *LoanService) Today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UserOptions lists the users offered by the loan form whose name or email
// contains term.
func (s *LoanService) UserOptions(ctx context.Context, term string) ([]model.User, error) {
	users, err := s.api.ListUsers(ctx, "")
	if err != nil {
		return nil, err
	}

	term = strings.TrimSpace(term)
	matched := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.Matches(term) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

// BookOptions lists the books with available copies whose title or author
// contains term.
func (s *LoanService) BookOptions(ctx context.Context, term string) ([]model.Book, error) {
	list, err := s.api.ListBooks(ctx, bookbase.ListParams{Limit: pickerBookLimit})
	if err != nil {
		return nil, err
	}

	term = strings.TrimSpace(term)
	matched := make([]model.Book, 0, len(list.Items))
	for _, b := range list.Items {
		if b.Available() && b.Matches(term) {
			matched = append(matched, b)
		}
	}
	return matched, nil
}
