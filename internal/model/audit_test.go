package model

import "testing"

func TestAuditAction_Label(t *testing.T) {
	tests := []struct {
		action AuditAction
		want   string
	}{
		{AuditLogin, "Login"},
		{AuditBookCreated, "Livro cadastrado"},
		{AuditBookDeleted, "Livro excluído"},
		{AuditLoanCreated, "Empréstimo registrado"},
		{AuditLoanReturned, "Devolução registrada"},
		{AuditAction("other"), "other"},
	}

	for _, tt := range tests {
		if got := tt.action.Label(); got != tt.want {
			t.Errorf("%q.Label() = %q, want %q", tt.action, got, tt.want)
		}
	}
}
