package bookbase

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bookbase/bookbase-admin/internal/model"
)

// LoanListParams selects one page of loans.
type LoanListParams struct {
	ListParams
	// Status is emprestado or devolvido. Empty or "todos" lists every loan.
	Status string
}

// ListLoans returns one page of loans.
func (c *Client) ListLoans(ctx context.Context, p LoanListParams) (List[model.Loan], error) {
	q := listQuery(p.Skip, p.Limit, p.Search)
	if p.Status != "" && p.Status != model.LoanStatusAll {
		q.Set("status", p.Status)
	}

	var raw json.RawMessage
	err := c.do(ctx, request{
		op:     "list_loans",
		method: http.MethodGet,
		path:   "/emprestimos",
		query:  q,
		auth:   true,
	}, &raw)
	if err != nil {
		return List[model.Loan]{}, err
	}

	list, err := decodeList[model.Loan](raw, "emprestimos")
	if err != nil {
		return List[model.Loan]{}, &TransportError{Op: "list_loans", Err: err}
	}
	return list, nil
}

// CreateLoan registers a loan.
func (c *Client) CreateLoan(ctx context.Context, loan model.NewLoan) (*model.Loan, error) {
	body, err := json.Marshal(loan)
	if err != nil {
		return nil, err
	}

	var created model.Loan
	err = c.do(ctx, request{
		op:          "create_loan",
		method:      http.MethodPost,
		path:        "/emprestimos",
		body:        body,
		contentType: "application/json",
		auth:        true,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ReturnLoan registers the return of a loan and returns the updated record.
func (c *Client) ReturnLoan(ctx context.Context, id int) (*model.Loan, error) {
	var updated model.Loan
	err := c.do(ctx, request{
		op:     "return_loan",
		method: http.MethodPut,
		path:   "/emprestimos/" + strconv.Itoa(id) + "/devolver",
		auth:   true,
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
