package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bookbase/bookbase-admin/internal/bookbase"
	"github.com/bookbase/bookbase-admin/internal/service"
)

// Messages shown to the operator.
const (
	msgMissingToken  = "Token não encontrado. Faça login novamente."
	msgConnection    = "Erro ao conectar com o servidor"
	msgMissingFields = "Por favor, preencha todos os campos."
	msgLoginFailed   = "Erro ao fazer login"
	msgUnexpected    = "Erro inesperado. Tente novamente."

	msgBookCreated    = "Livro registrado com sucesso!"
	msgBookFailed     = "Erro ao registrar o livro. Tente novamente."
	msgBookNumbers    = "Ano, páginas e exemplares devem ser números válidos."
	msgCoverType      = "Formato de imagem não permitido. Use JPG, JPEG, PNG ou GIF."
	msgCoverTooLarge  = "A imagem deve ter no máximo %d MB."
	msgLoanCreated    = "Empréstimo registrado com sucesso!"
	msgLoanFailed     = "Erro ao registrar empréstimo"
	msgLoanSelection  = "Selecione um usuário e um livro válidos."
	msgInvalidDate    = "Data de devolução inválida."
	msgDueDateInPast  = "A data de devolução não pode ser anterior a hoje."
	msgDeleteFailed   = "Erro ao excluir o livro"
	msgReturnFailed   = "Erro ao registrar devolução"
	msgTryAgain       = "Tente novamente"
	msgActivityFailed = "Não foi possível carregar a atividade recente."
)

// listErrorMessage describes a failed list fetch: the HTTP status for API
// errors, a connection message for transport failures.
func listErrorMessage(err error) string {
	var apiErr *bookbase.APIError
	var transportErr *bookbase.TransportError
	switch {
	case errors.Is(err, bookbase.ErrMissingCredential):
		return msgMissingToken
	case errors.As(err, &apiErr):
		return fmt.Sprintf("Erro %d: %s", apiErr.StatusCode, apiErr.Status)
	case errors.As(err, &transportErr):
		return msgConnection
	default:
		return msgUnexpected
	}
}

// mutationErrorMessage describes a failed confirmed action as
// "<action>: <server detail>", falling back to "Tente novamente".
func mutationErrorMessage(err error, action string) string {
	var apiErr *bookbase.APIError
	var transportErr *bookbase.TransportError
	switch {
	case errors.Is(err, bookbase.ErrMissingCredential):
		return msgMissingToken
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		return action + ": " + apiErr.Detail
	case errors.As(err, &transportErr):
		return msgConnection
	default:
		return action + ": " + msgTryAgain
	}
}

// formMessages describes failed submissions of one form. Validation errors
// get their own message; API errors show the server detail or failed.
type formMessages struct {
	failed        string
	invalidNumber string
	maxCoverSize  int64
}

func (m formMessages) describe(err error) string {
	var apiErr *bookbase.APIError
	var transportErr *bookbase.TransportError
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return msgMissingFields
	case errors.Is(err, service.ErrInvalidNumber):
		return m.invalidNumber
	case errors.Is(err, service.ErrInvalidDate):
		return msgInvalidDate
	case errors.Is(err, service.ErrDueDateInPast):
		return msgDueDateInPast
	case errors.Is(err, service.ErrCoverType):
		return msgCoverType
	case errors.Is(err, service.ErrCoverTooLarge):
		return fmt.Sprintf(msgCoverTooLarge, m.maxCoverSize>>20)
	case errors.Is(err, bookbase.ErrMissingCredential):
		return msgMissingToken
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		return apiErr.Detail
	case errors.As(err, &transportErr):
		return msgConnection
	default:
		return m.failed
	}
}

// loginErrorMessage describes a failed login.
func loginErrorMessage(err error) string {
	var apiErr *bookbase.APIError
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return msgMissingFields
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return msgLoginFailed
	case errors.Is(err, service.ErrInvalidCredentials):
		return msgLoginFailed
	default:
		return msgConnection
	}
}

// errorStatus is the response status of a page re-rendered after err.
func errorStatus(err error) int {
	var apiErr *bookbase.APIError
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidNumber),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrDueDateInPast),
		errors.Is(err, service.ErrCoverType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrCoverTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, bookbase.ErrMissingCredential), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		return apiErr.StatusCode
	default:
		return http.StatusBadGateway
	}
}
