package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bookbase/bookbase-admin/internal/bookbase"
	"github.com/bookbase/bookbase-admin/internal/service"
)

var (
	errNotFound = &bookbase.APIError{StatusCode: http.StatusNotFound, Status: "Not Found", Detail: "Livro não encontrado"}
	errServer   = &bookbase.APIError{StatusCode: http.StatusInternalServerError, Status: "Internal Server Error"}
	errOffline  = &bookbase.TransportError{Op: "list_books", Err: errors.New("connection refused")}
)

func TestListErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"api error", errNotFound, "Erro 404: Not Found"},
		{"wrapped api error", fmt.Errorf("load: %w", errServer), "Erro 500: Internal Server Error"},
		{"transport", errOffline, msgConnection},
		{"missing credential", bookbase.ErrMissingCredential, msgMissingToken},
		{"other", errors.New("boom"), msgUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, listErrorMessage(tt.err))
		})
	}
}

func TestMutationErrorMessage(t *testing.T) {
	assert.Equal(t, "Erro ao excluir o livro: Livro não encontrado", mutationErrorMessage(errNotFound, msgDeleteFailed))
	assert.Equal(t, "Erro ao registrar devolução: Tente novamente", mutationErrorMessage(errServer, msgReturnFailed))
	assert.Equal(t, msgConnection, mutationErrorMessage(errOffline, msgDeleteFailed))
	assert.Equal(t, msgMissingToken, mutationErrorMessage(bookbase.ErrMissingCredential, msgDeleteFailed))
}

func TestFormMessages(t *testing.T) {
	m := formMessages{failed: msgBookFailed, invalidNumber: msgBookNumbers, maxCoverSize: 5 << 20}

	tests := []struct {
		err  error
		want string
	}{
		{service.ErrMissingFields, msgMissingFields},
		{fmt.Errorf("%w: ano", service.ErrInvalidNumber), msgBookNumbers},
		{service.ErrCoverType, msgCoverType},
		{service.ErrCoverTooLarge, "A imagem deve ter no máximo 5 MB."},
		{service.ErrDueDateInPast, msgDueDateInPast},
		{&bookbase.APIError{StatusCode: 400, Status: "Bad Request", Detail: "ISBN já cadastrado"}, "ISBN já cadastrado"},
		{errServer, msgBookFailed},
		{errOffline, msgConnection},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.describe(tt.err), tt.err.Error())
	}
}

func TestLoginErrorMessage(t *testing.T) {
	unauthorized := &bookbase.APIError{StatusCode: http.StatusUnauthorized, Status: "Unauthorized", Detail: "Email ou senha incorretos"}

	assert.Equal(t, "Email ou senha incorretos", loginErrorMessage(unauthorized))
	assert.Equal(t, msgLoginFailed, loginErrorMessage(&bookbase.APIError{StatusCode: http.StatusUnauthorized}))
	assert.Equal(t, msgLoginFailed, loginErrorMessage(service.ErrInvalidCredentials))
	assert.Equal(t, msgMissingFields, loginErrorMessage(service.ErrMissingFields))
	assert.Equal(t, msgConnection, loginErrorMessage(errServer))
	assert.Equal(t, msgConnection, loginErrorMessage(errOffline))
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrMissingFields, http.StatusUnprocessableEntity},
		{service.ErrInvalidDate, http.StatusUnprocessableEntity},
		{service.ErrCoverType, http.StatusUnprocessableEntity},
		{service.ErrCoverTooLarge, http.StatusRequestEntityTooLarge},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{bookbase.ErrMissingCredential, http.StatusUnauthorized},
		{errNotFound, http.StatusNotFound},
		{errServer, http.StatusBadGateway},
		{errOffline, http.StatusBadGateway},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorStatus(tt.err), tt.err.Error())
	}
}
