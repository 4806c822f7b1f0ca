package bookbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strconv"

	"github.com/bookbase/bookbase-admin/internal/model"
)

// ListParams selects one page of a collection.
type ListParams struct {
	Skip   int
	Limit  int
	Search string
}

// Upload is a file sent in a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ListBooks returns one page of the catalog.
func (c *Client) ListBooks(ctx context.Context, p ListParams) (List[model.Book], error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		op:     "list_books",
		method: http.MethodGet,
		path:   "/livros",
		query:  listQuery(p.Skip, p.Limit, p.Search),
	}, &raw)
	if err != nil {
		return List[model.Book]{}, err
	}

	list, err := decodeList[model.Book](raw, "livros")
	if err != nil {
		return List[model.Book]{}, &TransportError{Op: "list_books", Err: err}
	}
	return list, nil
}

// GetBook returns a single book.
func (c *Client) GetBook(ctx context.Context, id int) (*model.Book, error) {
	var book model.Book
	err := c.do(ctx, request{
		op:     "get_book",
		method: http.MethodGet,
		path:   "/livros/" + strconv.Itoa(id),
	}, &book)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// CreateBook registers a book. cover may be nil.
func (c *Client) CreateBook(ctx context.Context, book model.NewBook, cover *Upload) (*model.Book, error) {
	body, contentType, err := encodeBookForm(book, cover)
	if err != nil {
		return nil, fmt.Errorf("encode book form: %w", err)
	}

	var created model.Book
	err = c.do(ctx, request{
		op:          "create_book",
		method:      http.MethodPost,
		path:        "/livros",
		body:        body,
		contentType: contentType,
		auth:        true,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteBook removes a book.
func (c *Client) DeleteBook(ctx context.Context, id int) error {
	return c.do(ctx, request{
		op:     "delete_book",
		method: http.MethodDelete,
		path:   "/livros/" + strconv.Itoa(id),
		auth:   true,
	}, nil)
}

// Cover is a streamed cover image. The caller must close Body.
type Cover struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// FetchCover streams the cover image stored under name.
func (c *Client) FetchCover(ctx context.Context, name string) (*Cover, error) {
	resp, err := c.send(ctx, request{
		op:     "get_cover",
		method: http.MethodGet,
		path:   "/livros/capas/" + url.PathEscape(path.Base(name)),
	})
	if err != nil {
		return nil, err
	}
	return &Cover{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

func encodeBookForm(book model.NewBook, cover *Upload) ([]byte, string, error) {
	copies := book.Copies
	if copies <= 0 {
		copies = 1
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"titulo", book.Title},
		{"autor", book.Author},
		{"isbn", book.ISBN},
		{"ano", strconv.Itoa(book.Year)},
		{"quantidade_exemplares", strconv.Itoa(copies)},
		{"categoria", book.Category},
		{"paginas", strconv.Itoa(book.Pages)},
		{"descricao", book.Description},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if cover != nil && len(cover.Data) > 0 {
		contentType := cover.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="capa"; filename=%q`, path.Base(cover.Filename)))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(cover.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
