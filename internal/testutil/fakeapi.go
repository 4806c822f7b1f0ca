package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bookbase/bookbase-admin/internal/model"
)

// FakeToken is the bearer token the fake API hands out and accepts.
const FakeToken = "fake-access-token"

// RecordedRequest is one request seen by FakeAPI.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
}

// FakeAPI is an in-memory bookbase API served over httptest.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	books    []model.Book
	users    []model.User
	loans    []model.Loan
	nextID   int
	failures map[string]failure
	requests []RecordedRequest
	password string
	token    string
	envelope bool
	now      func() time.Time
}

type failure struct {
	status int
	detail string
}

// NewFakeAPI starts a fake API. Close it with Server.Close.
func NewFakeAPI() *FakeAPI {
	f := &FakeAPI{
		nextID:   1000,
		failures: make(map[string]failure),
		password: "segredo",
		token:    FakeToken,
		now:      time.Now,
	}

	r := chi.NewRouter()
	r.Use(f.record)
	r.Post("/auth/login-json", f.login)
	r.Get("/livros", f.listBooks)
	r.Get("/livros/capas/{name}", f.cover)
	r.Get("/livros/{id}", f.getBook)
	r.With(f.requireAuth).Post("/livros", f.createBook)
	r.With(f.requireAuth).Delete("/livros/{id}", f.deleteBook)
	r.With(f.requireAuth).Get("/auth/users", f.listUsers)
	r.With(f.requireAuth).Get("/usuarios/{id}", f.getUser)
	r.With(f.requireAuth).Get("/emprestimos", f.listLoans)
	r.With(f.requireAuth).Post("/emprestimos", f.createLoan)
	r.With(f.requireAuth).Put("/emprestimos/{id}/devolver", f.returnLoan)

	f.Server = httptest.NewServer(r)
	return f
}

// URL returns the base URL of the fake.
func (f *FakeAPI) URL() string {
	return f.Server.URL
}

// Close stops the server.
func (f *FakeAPI) Close() {
	f.Server.Close()
}

// SetToken changes the token issued on login, e.g. to a signed JWT.
func (f *FakeAPI) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

// UseEnvelope makes list endpoints answer {"<items>": [...], "total": n}
// instead of a bare array.
func (f *FakeAPI) UseEnvelope() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envelope = true
}

// AddBooks appends books, assigning IDs to those without one.
func (f *FakeAPI) AddBooks(books ...model.Book) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range books {
		if b.ID == 0 {
			f.nextID++
			b.ID = f.nextID
		}
		f.books = append(f.books, b)
	}
}

// AddUsers appends users.
func (f *FakeAPI) AddUsers(users ...model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, users...)
}

// AddLoans appends loans.
func (f *FakeAPI) AddLoans(loans ...model.Loan) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loans = append(f.loans, loans...)
}

// Books returns a copy of the catalog.
func (f *FakeAPI) Books() []model.Book {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Book(nil), f.books...)
}

// Loans returns a copy of the loans.
func (f *FakeAPI) Loans() []model.Loan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Loan(nil), f.loans...)
}

// Fail makes every request to "METHOD /path" answer status with detail.
func (f *FakeAPI) Fail(method, path string, status int, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = failure{status: status, detail: detail}
}

// Requests returns the requests seen so far.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Count returns how many requests matched method and path prefix.
func (f *FakeAPI) Count(method, pathPrefix string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		})
		fail, failing := f.failures[r.Method+" "+r.URL.Path]
		f.mu.Unlock()

		if failing {
			writeDetail(w, fail.status, fail.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		want := "Bearer " + f.token
		f.mu.Unlock()
		if r.Header.Get("Authorization") != want {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if body.Password != f.password || body.Email == "" {
		writeDetail(w, http.StatusUnauthorized, "Email ou senha incorretos")
		return
	}
	writeJSON(w, http.StatusOK, model.Token{AccessToken: f.token, TokenType: "bearer"})
}

func (f *FakeAPI) listBooks(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	term := r.URL.Query().Get("busca")

	f.mu.Lock()
	matched := make([]model.Book, 0, len(f.books))
	for _, b := range f.books {
		if b.Matches(term) {
			matched = append(matched, b)
		}
	}
	envelope := f.envelope
	f.mu.Unlock()

	writeList(w, envelope, "livros", window(matched, skip, limit), len(matched))
}

func (f *FakeAPI) getBook(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.books {
		if b.ID == id {
			writeJSON(w, http.StatusOK, b)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Livro não encontrado")
}

func (f *FakeAPI) createBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}

	atoi := func(name string) int {
		n, _ := strconv.Atoi(r.FormValue(name))
		return n
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	isbn := r.FormValue("isbn")
	for _, b := range f.books {
		if b.ISBN == isbn && isbn != "" {
			writeDetail(w, http.StatusBadRequest, "ISBN já cadastrado")
			return
		}
	}

	f.nextID++
	book := model.Book{
		ID:          f.nextID,
		Title:       r.FormValue("titulo"),
		Author:      r.FormValue("autor"),
		ISBN:        isbn,
		Year:        atoi("ano"),
		Copies:      atoi("quantidade_exemplares"),
		Category:    r.FormValue("categoria"),
		Pages:       atoi("paginas"),
		Description: r.FormValue("descricao"),
	}
	if _, header, err := r.FormFile("capa"); err == nil {
		book.Cover = strconv.Itoa(book.ID) + "-" + header.Filename
	}
	f.books = append(f.books, book)
	writeJSON(w, http.StatusOK, book)
}

func (f *FakeAPI) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.books {
		if b.ID == id {
			f.books = append(f.books[:i], f.books[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Livro deletado com sucesso"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Livro não encontrado")
}

func (f *FakeAPI) cover(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "missing.png" {
		writeDetail(w, http.StatusNotFound, "Imagem não encontrada")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write([]byte("cover:" + name))
}

func (f *FakeAPI) listUsers(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("busca")

	f.mu.Lock()
	defer f.mu.Unlock()
	matched := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		if u.Matches(term) {
			matched = append(matched, u)
		}
	}
	writeJSON(w, http.StatusOK, matched)
}

func (f *FakeAPI) getUser(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			writeJSON(w, http.StatusOK, u)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Usuário não encontrado")
}

func (f *FakeAPI) listLoans(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	status := r.URL.Query().Get("status")
	term := strings.ToLower(r.URL.Query().Get("busca"))

	f.mu.Lock()
	matched := make([]model.Loan, 0, len(f.loans))
	for _, l := range f.loans {
		if status != "" && string(l.Status) != status {
			continue
		}
		row := f.denormalize(l)
		if term != "" &&
			!strings.Contains(strings.ToLower(row.UserName), term) &&
			!strings.Contains(strings.ToLower(row.BookTitle), term) {
			continue
		}
		matched = append(matched, row)
	}
	envelope := f.envelope
	f.mu.Unlock()

	writeList(w, envelope, "emprestimos", window(matched, skip, limit), len(matched))
}

// denormalize fills usuario_nome and livro_titulo. Caller holds mu.
func (f *FakeAPI) denormalize(l model.Loan) model.Loan {
	l.User = nil
	l.Book = nil
	for _, u := range f.users {
		if u.ID == l.UserID {
			l.UserName = u.Name
		}
	}
	for _, b := range f.books {
		if b.ID == l.BookID {
			l.BookTitle = b.Title
		}
	}
	return l
}

func (f *FakeAPI) createLoan(w http.ResponseWriter, r *http.Request) {
	var body model.NewLoan
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	bookIdx := -1
	for i, b := range f.books {
		if b.ID == body.BookID {
			bookIdx = i
		}
	}
	if bookIdx < 0 {
		writeDetail(w, http.StatusNotFound, "Livro não encontrado")
		return
	}
	if f.books[bookIdx].Copies <= 0 {
		writeDetail(w, http.StatusBadRequest, "Livro não disponível")
		return
	}
	f.books[bookIdx].Copies--

	f.nextID++
	loan := model.Loan{
		ID:             f.nextID,
		UserID:         body.UserID,
		BookID:         body.BookID,
		LoanDate:       model.NewTimestamp(f.now().UTC()),
		ExpectedReturn: model.NewTimestamp(body.ExpectedReturn),
		Status:         model.LoanStatusBorrowed,
	}
	f.loans = append(f.loans, loan)

	book := f.books[bookIdx]
	created := loan
	created.Book = &book
	writeJSON(w, http.StatusOK, created)
}

func (f *FakeAPI) returnLoan(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.loans {
		if l.ID != id {
			continue
		}
		if l.Status == model.LoanStatusReturned {
			writeDetail(w, http.StatusBadRequest, "Livro já foi devolvido")
			return
		}
		f.loans[i].Status = model.LoanStatusReturned
		f.loans[i].ActualReturn = model.NewTimestamp(f.now().UTC())
		for j, b := range f.books {
			if b.ID == l.BookID {
				f.books[j].Copies++
			}
		}
		writeJSON(w, http.StatusOK, f.loans[i])
		return
	}
	writeDetail(w, http.StatusNotFound, "Empréstimo não encontrado")
}

func pageParams(r *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	return skip, limit
}

func window[T any](items []T, skip, limit int) []T {
	if skip > len(items) {
		skip = len(items)
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

func writeList[T any](w http.ResponseWriter, envelope bool, field string, items []T, total int) {
	if !envelope {
		writeJSON(w, http.StatusOK, items)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{field: items, "total": total})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
