package model

import "time"

// AuditAction names a recorded console action.
type AuditAction string

const (
	AuditLogin        AuditAction = "login"
	AuditBookCreated  AuditAction = "book_created"
	AuditBookDeleted  AuditAction = "book_deleted"
	AuditLoanCreated  AuditAction = "loan_created"
	AuditLoanReturned AuditAction = "loan_returned"
)

// Label is the pt-BR description shown on the activity page.
func (a AuditAction) Label() string {
	switch a {
	case AuditLogin:
		return "Login"
	case AuditBookCreated:
		return "Livro cadastrado"
	case AuditBookDeleted:
		return "Livro excluído"
	case AuditLoanCreated:
		return "Empréstimo registrado"
	case AuditLoanReturned:
		return "Devolução registrada"
	default:
		return string(a)
	}
}

// AuditEvent is one row of the audit log.
type AuditEvent struct {
	ID        string
	Action    AuditAction
	Actor     string
	SubjectID int
	Summary   string
	RequestID string
	CreatedAt time.Time
}
