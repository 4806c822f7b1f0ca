package bookbase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookbase/bookbase-admin/internal/bookbase"
	"github.com/bookbase/bookbase-admin/internal/model"
	"github.com/bookbase/bookbase-admin/internal/testutil"
)

var apiDocPath = filepath.Join("..", "..", "docs", "api", "bookbase-api.yaml")

func init() {
	for _, ct := range []string{"image/png", "image/jpeg", "image/gif"} {
		openapi3filter.RegisterBodyDecoder(ct, openapi3filter.FileBodyDecoder)
	}
}

// loadAPIDocument loads and validates the API document, served from baseURL.
func loadAPIDocument(t *testing.T, baseURL string) routers.Router {
	t.Helper()

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(apiDocPath)
	require.NoError(t, err, "load %s", apiDocPath)
	require.NoError(t, doc.Validate(context.Background()))

	doc.Servers = openapi3.Servers{{URL: baseURL}}
	router, err := gorillamux.NewRouter(doc)
	require.NoError(t, err)
	return router
}

// contractTransport checks every request the client sends, and every
// response it gets, against the API document.
type contractTransport struct {
	t      *testing.T
	router routers.Router
	next   http.RoundTripper
}

func bearerAuth(_ context.Context, in *openapi3filter.AuthenticationInput) error {
	if !strings.HasPrefix(in.RequestValidationInput.Request.Header.Get("Authorization"), "Bearer ") {
		return errors.New("missing bearer token")
	}
	return nil
}

func (c *contractTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	route, params, err := c.router.FindRoute(req)
	if err != nil {
		c.t.Errorf("%s %s is not documented: %v", req.Method, req.URL.Path, err)
		return c.next.RoundTrip(req)
	}

	in := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: params,
		Route:      route,
		Options:    &openapi3filter.Options{AuthenticationFunc: bearerAuth},
	}
	if err := openapi3filter.ValidateRequest(req.Context(), in); err != nil {
		c.t.Errorf("request %s %s: %v", req.Method, req.URL.Path, err)
	}

	resp, err := c.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	opts := &openapi3filter.Options{IncludeResponseStatus: true}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		opts.ExcludeResponseBody = true
	}
	out := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: in,
		Status:                 resp.StatusCode,
		Header:                 resp.Header,
		Body:                   io.NopCloser(bytes.NewReader(body)),
		Options:                opts,
	}
	if err := openapi3filter.ValidateResponse(req.Context(), out); err != nil {
		c.t.Errorf("response %s %s %d: %v", req.Method, req.URL.Path, resp.StatusCode, err)
	}
	return resp, nil
}

func newContractClient(t *testing.T, api *testutil.FakeAPI, creds bookbase.CredentialProvider) *bookbase.Client {
	t.Helper()

	client, err := bookbase.New(bookbase.Options{
		BaseURL:     api.URL(),
		Credentials: creds,
		HTTPClient: &http.Client{
			Timeout:   5 * time.Second,
			Transport: &contractTransport{t: t, router: loadAPIDocument(t, api.URL()), next: http.DefaultTransport},
		},
	})
	require.NoError(t, err)
	return client
}

func seedContract(api *testutil.FakeAPI) {
	api.AddBooks(
		model.Book{ID: 1, Title: "Dom Casmurro", Author: "Machado de Assis", ISBN: "111", Year: 1899, Copies: 2, Cover: "1-capa.png"},
		model.Book{ID: 2, Title: "Iracema", Author: "José de Alencar", ISBN: "222", Copies: 1},
	)
	api.AddUsers(model.User{ID: 7, Name: "Beatriz Lima", Email: "bia@exemplo.com", Role: "leitor", IsActive: true})
	api.AddLoans(model.Loan{
		ID: 50, UserID: 7, BookID: 1,
		LoanDate:       model.NewTimestamp(time.Now().UTC()),
		ExpectedReturn: model.NewTimestamp(time.Now().UTC().AddDate(0, 0, 7)),
		Status:         model.LoanStatusBorrowed,
	})
}

func TestContract_Login(t *testing.T) {
	api := testutil.NewFakeAPI()
	t.Cleanup(api.Close)
	client := newContractClient(t, api, nil)
	ctx := context.Background()

	token, err := client.Login(ctx, "ana@biblioteca.br", "segredo")
	require.NoError(t, err)
	assert.Equal(t, testutil.FakeToken, token.AccessToken)

	_, err = client.Login(ctx, "ana@biblioteca.br", "errada")
	assert.True(t, bookbase.IsStatus(err, http.StatusUnauthorized))
}

func TestContract_Catalog(t *testing.T) {
	api := testutil.NewFakeAPI()
	t.Cleanup(api.Close)
	seedContract(api)
	client := newContractClient(t, api, bookbase.StaticCredential(testutil.FakeToken))
	ctx := context.Background()

	list, err := client.ListBooks(ctx, bookbase.ListParams{Skip: 0, Limit: 10, Search: "dom"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	book, err := client.GetBook(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Iracema", book.Title)

	created, err := client.CreateBook(ctx, model.NewBook{
		Title: "Helena", Author: "Machado de Assis", ISBN: "333", Year: 1876, Copies: 2,
	}, &bookbase.Upload{Filename: "helena.png", ContentType: "image/png", Data: []byte("\x89PNG")})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	cover, err := client.FetchCover(ctx, "1-capa.png")
	require.NoError(t, err)
	_ = cover.Body.Close()

	require.NoError(t, client.DeleteBook(ctx, created.ID))
	err = client.DeleteBook(ctx, created.ID)
	assert.True(t, bookbase.IsStatus(err, http.StatusNotFound))
}

func TestContract_CatalogEnvelope(t *testing.T) {
	api := testutil.NewFakeAPI()
	t.Cleanup(api.Close)
	api.UseEnvelope()
	seedContract(api)
	client := newContractClient(t, api, bookbase.StaticCredential(testutil.FakeToken))

	list, err := client.ListBooks(context.Background(), bookbase.ListParams{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 2, list.Total)
}

func TestContract_Loans(t *testing.T) {
	api := testutil.NewFakeAPI()
	t.Cleanup(api.Close)
	seedContract(api)
	client := newContractClient(t, api, bookbase.StaticCredential(testutil.FakeToken))
	ctx := context.Background()

	loans, err := client.ListLoans(ctx, bookbase.LoanListParams{
		ListParams: bookbase.ListParams{Limit: 10},
		Status:     string(model.LoanStatusBorrowed),
	})
	require.NoError(t, err)
	require.Len(t, loans.Items, 1)

	users, err := client.ListUsers(ctx, "bia")
	require.NoError(t, err)
	require.Len(t, users, 1)

	user, err := client.GetUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Beatriz Lima", user.Name)

	due := time.Now().UTC().AddDate(0, 0, 14).Truncate(24 * time.Hour)
	loan, err := client.CreateLoan(ctx, model.NewLoan{UserID: 7, BookID: 2, ExpectedReturn: due})
	require.NoError(t, err)
	assert.Equal(t, model.LoanStatusBorrowed, loan.Status)

	returned, err := client.ReturnLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanStatusReturned, returned.Status)

	_, err = client.ReturnLoan(ctx, loan.ID)
	assert.True(t, bookbase.IsStatus(err, http.StatusBadRequest))
}
