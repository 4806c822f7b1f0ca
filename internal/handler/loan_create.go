package handler

import (
	"log/slog"
	"net/http"

	"github.com/bookbase/bookbase-admin/internal/middleware"
	"github.com/bookbase/bookbase-admin/internal/model"
	"github.com/bookbase/bookbase-admin/internal/service"
)

type loanFormPage struct {
	Form      service.CreateLoanInput
	UserQuery string
	BookQuery string
	Users     []model.User
	Books     []model.Book
	// PickerErr is set when the user or book options could not be loaded.
	PickerErr string
	MinDate   string
}

// NewLoanForm renders the loan form. user_q and book_q filter the pickers.
// GET /loans/new?user_q=&book_q=&usuario_id=&livro_id=&data_devolucao_prevista=
func (h *Handler) NewLoanForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	form := service.CreateLoanInput{
		UserID:  q.Get("usuario_id"),
		BookID:  q.Get("livro_id"),
		DueDate: q.Get("data_devolucao_prevista"),
	}
	h.renderLoanForm(w, r, http.StatusOK, form, q.Get("user_q"), q.Get("book_q"), nil)
}

// CreateLoan registers a loan. On success the form is cleared and the book
// options are reloaded so availability is current.
// POST /loans
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	messages := formMessages{failed: msgLoanFailed, invalidNumber: msgLoanSelection}

	input := service.CreateLoanInput{
		UserID:  r.PostFormValue("usuario_id"),
		BookID:  r.PostFormValue("livro_id"),
		DueDate: r.PostFormValue("data_devolucao_prevista"),
	}
	userQuery := r.PostFormValue("user_q")
	bookQuery := r.PostFormValue("book_q")

	loan, err := h.loans.CreateLoan(r.Context(), input)
	if err != nil {
		h.logger.InfoContext(r.Context(), "loan registration failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		h.renderLoanForm(w, r, errorStatus(err), input, userQuery, bookQuery, errorFlash(messages.describe(err)))
		return
	}

	h.logger.InfoContext(r.Context(), "loan registered",
		slog.Int("loan_id", loan.ID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.renderLoanForm(w, r, http.StatusCreated, service.CreateLoanInput{}, "", "", successFlash(msgLoanCreated))
}

func (h *Handler) renderLoanForm(w http.ResponseWriter, r *http.Request, status int, form service.CreateLoanInput, userQuery, bookQuery string, msg *flash) {
	ctx := r.Context()
	page := loanFormPage{
		Form:      form,
		UserQuery: userQuery,
		BookQuery: bookQuery,
		MinDate:   h.loans.Today().Format("2006-01-02"),
	}

	users, err := h.loans.UserOptions(ctx, userQuery)
	if err != nil {
		h.logger.WarnContext(ctx, "user options unavailable", slog.String("error", err.Error()))
		page.PickerErr = listErrorMessage(err)
	}
	books, err := h.loans.BookOptions(ctx, bookQuery)
	if err != nil {
		h.logger.WarnContext(ctx, "book options unavailable", slog.String("error", err.Error()))
		page.PickerErr = listErrorMessage(err)
	}
	page.Users = users
	page.Books = books

	h.render(w, r, status, "loan_new.html", pageData{
		Title:  "Emprestar Livro",
		Active: "/loans/new",
		Flash:  msg,
		Data:   page,
	})
}
