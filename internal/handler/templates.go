package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bookbase/bookbase-admin/internal/middleware"
	"github.com/bookbase/bookbase-admin/internal/model"
	"github.com/bookbase/bookbase-admin/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static serves the embedded stylesheet and images under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// renderer holds one template set per page, each combined with the layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer(funcs template.FuncMap) (*renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		base := strings.TrimPrefix(name, "templates/")
		if base == "layout.html" {
			continue
		}
		t, err := template.New(base).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", base, err)
		}
		r.pages[base] = t
	}
	return r, nil
}

// flash is a one-off message shown above a page.
type flash struct {
	Kind string // success or error
	Text string
}

// pageData is passed to every page. Data holds the page specific values.
type pageData struct {
	Title   string
	Active  string
	Session *session.Session
	Flash   *flash
	Data    any
}

func successFlash(text string) *flash {
	return &flash{Kind: "success", Text: text}
}

func errorFlash(text string) *flash {
	return &flash{Kind: "error", Text: text}
}

// render executes page into a buffer first so a template error never
// produces a half written response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	t, ok := h.pages.pages[page]
	if !ok {
		h.logger.ErrorContext(r.Context(), "unknown page template", slog.String("page", page))
		http.Error(w, "Erro interno. Tente novamente.", http.StatusInternalServerError)
		return
	}
	if data.Session == nil {
		data.Session = session.FromContext(r.Context())
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.ErrorContext(r.Context(), "template execution failed",
			slog.String("page", page),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		http.Error(w, "Erro interno. Tente novamente.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"orText": func(s, fallback string) string {
			if strings.TrimSpace(s) == "" {
				return fallback
			}
			return strings.TrimSpace(s)
		},
		"orNumber": func(n int, fallback string) string {
			if n == 0 {
				return fallback
			}
			return strconv.Itoa(n)
		},
		"coverURL": func(b model.Book) string {
			if !b.HasCover() {
				return "/static/sem-imagem.svg"
			}
			return "/covers/" + url.PathEscape(b.Cover)
		},
		"statusClass": func(l model.Loan) string { return l.StatusClass(h.now()) },
		"statusText":  func(l model.Loan) string { return l.StatusText(h.now()) },
		"overdue":     func(l model.Loan) bool { return l.IsOverdue(h.now()) },
		"today":       func() string { return h.now().Format("02/01/2006") },
		"booksURL":    booksURL,
		"loansURL":    loansURL,
	}
}

// booksURL links to a catalog page.
func booksURL(term string, page int) string {
	q := url.Values{}
	if term != "" {
		q.Set("busca", term)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	return withQuery("/books", q)
}

// loansURL links to a loan list page.
func loansURL(term, status string, page int) string {
	q := url.Values{}
	if term != "" {
		q.Set("busca", term)
	}
	if status != "" && status != model.LoanStatusAll {
		q.Set("status", status)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	return withQuery("/loans", q)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
