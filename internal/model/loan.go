package model

import (
	"fmt"
	"time"
)

// LoanStatus is the persisted state of a loan.
type LoanStatus string

const (
	LoanStatusBorrowed LoanStatus = "emprestado"
	LoanStatusReturned LoanStatus = "devolvido"
)

// LoanStatusAll is the list filter value meaning "no status filter".
const LoanStatusAll = "todos"

// Loan binds one user to one book copy for a bounded period.
type Loan struct {
	ID             int        `json:"id"`
	UserID         int        `json:"usuario_id"`
	BookID         int        `json:"livro_id"`
	LoanDate       Timestamp  `json:"data_emprestimo"`
	ExpectedReturn Timestamp  `json:"data_devolucao_prevista"`
	ActualReturn   Timestamp  `json:"data_devolucao_real"`
	Status         LoanStatus `json:"status"`
	UserName       string     `json:"usuario_nome,omitempty"`
	BookTitle      string     `json:"livro_titulo,omitempty"`
	User           *User      `json:"usuario,omitempty"`
	Book           *Book      `json:"livro,omitempty"`
}

// Key returns the loan ID. Used as the row identity in list views.
func (l Loan) Key() int {
	return l.ID
}

// IsOverdue reports whether the loan is still borrowed and now is strictly
// after its expected return date. A loan without a due date is never overdue.
func (l Loan) IsOverdue(now time.Time) bool {
	if l.Status != LoanStatusBorrowed || l.ExpectedReturn.IsZero() {
		return false
	}
	return now.After(l.ExpectedReturn.Time)
}

// Returnable reports whether a return can be registered for the loan.
func (l Loan) Returnable() bool {
	return l.Status == LoanStatusBorrowed
}

// StatusClass is the display class: devolvido, atrasado or emprestado.
func (l Loan) StatusClass(now time.Time) string {
	switch {
	case l.Status == LoanStatusReturned:
		return "devolvido"
	case l.IsOverdue(now):
		return "atrasado"
	default:
		return "emprestado"
	}
}

// StatusText is the display label matching StatusClass.
func (l Loan) StatusText(now time.Time) string {
	switch l.StatusClass(now) {
	case "devolvido":
		return "Devolvido"
	case "atrasado":
		return "Atrasado"
	default:
		return "Emprestado"
	}
}

// UserLabel names the borrower, preferring fetched details.
func (l Loan) UserLabel() string {
	switch {
	case l.User != nil && l.User.Name != "":
		return l.User.Name
	case l.UserName != "":
		return l.UserName
	default:
		return fmt.Sprintf("Usuário ID: %d", l.UserID)
	}
}

// BookLabel names the book, preferring fetched details.
func (l Loan) BookLabel() string {
	switch {
	case l.Book != nil && l.Book.Title != "":
		return l.Book.Label()
	case l.BookTitle != "":
		return l.BookTitle
	default:
		return fmt.Sprintf("Livro ID: %d", l.BookID)
	}
}

// Merge overlays the non-zero fields of update onto l, the way a returned
// loan is patched into an already rendered row.
func (l Loan) Merge(update Loan) Loan {
	if update.ID != 0 {
		l.ID = update.ID
	}
	if update.UserID != 0 {
		l.UserID = update.UserID
	}
	if update.BookID != 0 {
		l.BookID = update.BookID
	}
	if !update.LoanDate.IsZero() {
		l.LoanDate = update.LoanDate
	}
	if !update.ExpectedReturn.IsZero() {
		l.ExpectedReturn = update.ExpectedReturn
	}
	if !update.ActualReturn.IsZero() {
		l.ActualReturn = update.ActualReturn
	}
	if update.Status != "" {
		l.Status = update.Status
	}
	if update.UserName != "" {
		l.UserName = update.UserName
	}
	if update.BookTitle != "" {
		l.BookTitle = update.BookTitle
	}
	if update.User != nil {
		l.User = update.User
	}
	if update.Book != nil {
		l.Book = update.Book
	}
	return l
}

// NewLoan is the body of POST /emprestimos.
type NewLoan struct {
	UserID         int       `json:"usuario_id"`
	BookID         int       `json:"livro_id"`
	ExpectedReturn time.Time `json:"data_devolucao_prevista"`
}
