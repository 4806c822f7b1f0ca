package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bookbase/bookbase-admin/internal/listing"
	"github.com/bookbase/bookbase-admin/internal/model"
)

// savedLoansURL renders the stored loan list state without a new fetch.
const savedLoansURL = "/loans?view=saved"

// statusFilter is one loan list filter button.
type statusFilter struct {
	Value string
	Label string
}

var statusFilters = []statusFilter{
	{model.LoanStatusAll, "Todos"},
	{string(model.LoanStatusBorrowed), "Emprestados"},
	{string(model.LoanStatusReturned), "Devolvidos"},
}

type loansPage struct {
	State   listing.State[model.Loan]
	Status  string
	Filters []statusFilter
	Target  *model.Loan
}

// Filtered reports whether a search term or status filter is applied.
func (p loansPage) Filtered() bool {
	return p.State.Query.Term != "" || p.Status != model.LoanStatusAll
}

// normalizeStatus maps the status query value onto a known filter.
func normalizeStatus(raw string) string {
	switch raw {
	case string(model.LoanStatusBorrowed), string(model.LoanStatusReturned):
		return raw
	default:
		return model.LoanStatusAll
	}
}

// ListLoans loads and renders one page of loans.
// GET /loans?busca=&status=&page=
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := currentSession(r)
	q := r.URL.Query()

	f, stored := h.loanList.open(ctx, sess.ID)
	if q.Get("view") == "saved" && stored {
		h.renderLoans(w, r, f.State())
		return
	}

	query := listing.Query{
		Term:   strings.TrimSpace(q.Get("busca")),
		Status: normalizeStatus(q.Get("status")),
	}
	h.renderLoans(w, r, h.loanList.fetch(ctx, sess.ID, f, stored, query, pageParam(q.Get("page"))))
}

// RetryLoans re-issues the last loan list request.
// POST /loans/retry
func (h *Handler) RetryLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := currentSession(r)

	f, _ := h.loanList.open(ctx, sess.ID)
	err := f.Retry(ctx)
	h.loanList.settle(ctx, sess.ID, f, err)
	http.Redirect(w, r, savedLoansURL, http.StatusSeeOther)
}

// ConfirmReturnLoan shows the loan list with the return confirmation open.
// GET /loans/{id}/return
func (h *Handler) ConfirmReturnLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := currentSession(r)

	id, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		h.NotFound(w, r)
		return
	}

	f, stored := h.loanList.open(ctx, sess.ID)
	if !stored {
		http.Redirect(w, r, "/loans", http.StatusSeeOther)
		return
	}
	f.OpenConfirm(id)
	h.renderLoans(w, r, h.loanList.save(ctx, sess.ID, f.State()))
}

// ReturnLoan confirms or cancels the return confirmation. A confirmed
// return merges the updated loan into the stored row.
// POST /loans/{id}/return
func (h *Handler) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := currentSession(r)

	id, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		h.NotFound(w, r)
		return
	}

	f, _ := h.loanList.open(ctx, sess.ID)
	if r.PostFormValue("action") == "cancel" {
		f.CancelConfirm()
		h.loanList.save(ctx, sess.ID, f.State())
		http.Redirect(w, r, savedLoansURL, http.StatusSeeOther)
		return
	}

	err := h.loans.ReturnLoan(ctx, f, id)
	st := f.State()
	if err != nil && !errors.Is(err, listing.ErrConfirmBusy) && st.Confirm.IsOpen() {
		st.Confirm.Err = mutationErrorMessage(err, msgReturnFailed)
	}
	h.loanList.save(ctx, sess.ID, st)
	http.Redirect(w, r, savedLoansURL, http.StatusSeeOther)
}

func (h *Handler) renderLoans(w http.ResponseWriter, r *http.Request, st listing.State[model.Loan]) {
	page := loansPage{
		State:   st,
		Status:  normalizeStatus(st.Query.Status),
		Filters: statusFilters,
	}
	if st.Phase != listing.PhaseSuccess && st.Attempt.Page > 0 {
		page.Status = normalizeStatus(st.Attempt.Query.Status)
	}
	if st.Confirm.IsOpen() {
		for i := range st.Items {
			if st.Items[i].ID == st.Confirm.TargetID {
				page.Target = &st.Items[i]
				break
			}
		}
	}
	h.render(w, r, http.StatusOK, "loans.html", pageData{
		Title:  "Lista de Empréstimos",
		Active: "/loans",
		Data:   page,
	})
}
