package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/bookbase/bookbase-admin/internal/bookbase"
	"github.com/bookbase/bookbase-admin/internal/middleware"
	"github.com/bookbase/bookbase-admin/internal/service"
)

// formMemory is how much of a multipart form is kept in memory before
// spilling to temporary files.
const formMemory = 8 << 20

type registerPage struct {
	Form         service.RegisterBookInput
	MaxCoverSize int64
}

// NewBookForm renders the book registration form.
// GET /books/new
func (h *Handler) NewBookForm(w http.ResponseWriter, r *http.Request) {
	h.renderRegister(w, r, http.StatusOK, service.RegisterBookInput{Copies: "1"}, nil)
}

// CreateBook registers a book with an optional cover.
// POST /books
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	messages := formMessages{failed: msgBookFailed, invalidNumber: msgBookNumbers, maxCoverSize: h.maxCoverSize}

	if err := r.ParseMultipartForm(formMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderRegister(w, r, http.StatusRequestEntityTooLarge, service.RegisterBookInput{},
				errorFlash(messages.describe(service.ErrCoverTooLarge)))
			return
		}
		http.Error(w, "Formulário inválido.", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	input := service.RegisterBookInput{
		Title:       r.FormValue("titulo"),
		Author:      r.FormValue("autor"),
		ISBN:        r.FormValue("isbn"),
		Description: r.FormValue("descricao"),
		Category:    r.FormValue("categoria"),
		Year:        r.FormValue("ano"),
		Pages:       r.FormValue("paginas"),
		Copies:      r.FormValue("quantidade_exemplares"),
	}

	cover, err := h.readCover(r)
	if err != nil {
		h.renderRegister(w, r, http.StatusBadRequest, input, errorFlash(msgBookFailed))
		return
	}
	input.Cover = cover

	book, err := h.catalog.RegisterBook(r.Context(), input)
	if err != nil {
		h.logger.InfoContext(r.Context(), "book registration failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		input.Cover = nil
		h.renderRegister(w, r, errorStatus(err), input, errorFlash(messages.describe(err)))
		return
	}

	h.logger.InfoContext(r.Context(), "book registered",
		slog.Int("book_id", book.ID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.renderRegister(w, r, http.StatusCreated, service.RegisterBookInput{Copies: "1"}, successFlash(msgBookCreated))
}

// readCover reads the optional "capa" file. At most one byte more than the
// size limit is read so an oversized file is still reported as such.
func (h *Handler) readCover(r *http.Request) (*bookbase.Upload, error) {
	file, header, err := r.FormFile("capa")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxCoverSize+1))
	if err != nil {
		return nil, err
	}
	return &bookbase.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *Handler) renderRegister(w http.ResponseWriter, r *http.Request, status int, form service.RegisterBookInput, msg *flash) {
	h.render(w, r, status, "book_new.html", pageData{
		Title:  "Registrar Novo Livro",
		Active: "/books/new",
		Flash:  msg,
		Data:   registerPage{Form: form, MaxCoverSize: h.maxCoverSize >> 20},
	})
}
