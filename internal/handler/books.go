package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bookbase/bookbase-admin/internal/bookbase"
	"github.com/bookbase/bookbase-admin/internal/listing"
	"github.com/bookbase/bookbase-admin/internal/middleware"
	"github.com/bookbase/bookbase-admin/internal/model"
)

// savedBooksURL renders the stored catalog state without a new fetch.
const savedBooksURL = "/books?view=saved"

type catalogPage struct {
	State listing.State[model.Book]
	// Target is the book named by the open confirmation, if loaded.
	Target *model.Book
}

// ListBooks loads and renders one catalog page.
// GET /books?busca=&page=
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := currentSession(r)
	q := r.URL.Query()

	f, stored := h.books.open(ctx, sess.ID)
	if q.Get("view") == "saved" && stored {
		h.renderCatalog(w, r, f.State())
		return
	}

	query := listing.Query{Term: strings.TrimSpace(q.Get("busca"))}
	h.renderCatalog(w, r, h.books.fetch(ctx, sess.ID, f, stored, query, pageParam(q.Get("page"))))
}

// RetryBooks re-issues the last catalog request.
// POST /books/retry
func (h *Handler) RetryBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := currentSession(r)

	f, _ := h.books.open(ctx, sess.ID)
	err := f.Retry(ctx)
	h.books.settle(ctx, sess.ID, f, err)
	http.Redirect(w, r, savedBooksURL, http.StatusSeeOther)
}

// ConfirmDeleteBook shows the catalog with the delete confirmation open.
// GET /books/{id}/delete
func (h *Handler) ConfirmDeleteBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := currentSession(r)

	id, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		h.NotFound(w, r)
		return
	}

	f, stored := h.books.open(ctx, sess.ID)
	if !stored {
		http.Redirect(w, r, "/books", http.StatusSeeOther)
		return
	}
	f.OpenConfirm(id)
	h.renderCatalog(w, r, h.books.save(ctx, sess.ID, f.State()))
}

// DeleteBook confirms or cancels the delete confirmation. A confirmed
// delete removes the row from the stored page without re-fetching it.
// POST /books/{id}/delete
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := currentSession(r)

	id, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		h.NotFound(w, r)
		return
	}

	f, _ := h.books.open(ctx, sess.ID)
	if r.PostFormValue("action") == "cancel" {
		f.CancelConfirm()
		h.books.save(ctx, sess.ID, f.State())
		http.Redirect(w, r, savedBooksURL, http.StatusSeeOther)
		return
	}

	err := h.catalog.DeleteBook(ctx, f, id)
	switch {
	case errors.Is(err, listing.ErrStaleResponse):
		h.books.settle(ctx, sess.ID, f, err)
	case err != nil:
		st := f.State()
		if st.Confirm.IsOpen() && st.Confirm.Err != "" {
			st.Confirm.Err = mutationErrorMessage(err, msgDeleteFailed)
		}
		h.books.save(ctx, sess.ID, st)
	default:
		h.books.save(ctx, sess.ID, f.State())
	}
	http.Redirect(w, r, savedBooksURL, http.StatusSeeOther)
}

func (h *Handler) renderCatalog(w http.ResponseWriter, r *http.Request, st listing.State[model.Book]) {
	page := catalogPage{State: st}
	if st.Confirm.IsOpen() {
		for i := range st.Items {
			if st.Items[i].ID == st.Confirm.TargetID {
				page.Target = &st.Items[i]
				break
			}
		}
	}
	h.render(w, r, http.StatusOK, "books.html", pageData{
		Title:  "Biblioteca de Livros",
		Active: "/books",
		Data:   page,
	})
}

// Cover streams a book cover from the API.
// GET /covers/{name}
func (h *Handler) Cover(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || strings.ContainsAny(name, "/\\") {
		http.NotFound(w, r)
		return
	}

	cover, err := h.covers.FetchCover(r.Context(), name)
	if err != nil {
		if bookbase.IsStatus(err, http.StatusNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.WarnContext(r.Context(), "cover fetch failed",
			slog.String("name", name),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		http.Error(w, "Imagem indisponível.", http.StatusBadGateway)
		return
	}
	defer cover.Body.Close()

	contentType := cover.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if cover.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(cover.ContentLength, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, cover.Body)
}
