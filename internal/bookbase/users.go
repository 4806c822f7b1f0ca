package bookbase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bookbase/bookbase-admin/internal/model"
)

// Login exchanges email and password for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.Token, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var token model.Token
	err = c.do(ctx, request{
		op:          "login",
		method:      http.MethodPost,
		path:        "/auth/login-json",
		body:        body,
		contentType: "application/json",
	}, &token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// ListUsers returns the users matching search, or every user for a blank
// search.
func (c *Client) ListUsers(ctx context.Context, search string) ([]model.User, error) {
	q := url.Values{}
	if term := strings.TrimSpace(search); term != "" {
		q.Set("busca", term)
	}

	var raw json.RawMessage
	err := c.do(ctx, request{
		op:     "list_users",
		method: http.MethodGet,
		path:   "/auth/users",
		query:  q,
		auth:   true,
	}, &raw)
	if err != nil {
		return nil, err
	}

	list, err := decodeList[model.User](raw, "usuarios")
	if err != nil {
		return nil, &TransportError{Op: "list_users", Err: err}
	}
	return list.Items, nil
}

// GetUser returns a single user.
func (c *Client) GetUser(ctx context.Context, id int) (*model.User, error) {
	var user model.User
	err := c.do(ctx, request{
		op:     "get_user",
		method: http.MethodGet,
		path:   "/usuarios/" + strconv.Itoa(id),
		auth:   true,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
