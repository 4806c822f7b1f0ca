package model

import "strings"

// Book is a catalog entry as returned by GET /livros.
type Book struct {
	ID          int    `json:"id"`
	Title       string `json:"titulo"`
	Author      string `json:"autor"`
	ISBN        string `json:"isbn"`
	Description string `json:"descricao"`
	Category    string `json:"categoria"`
	Year        int    `json:"ano"`
	Pages       int    `json:"paginas"`
	Copies      int    `json:"quantidade_exemplares"`
	Cover       string `json:"capa,omitempty"`
}

// Key returns the book ID. Used as the row identity in list views.
func (b Book) Key() int {
	return b.ID
}

// Available reports whether the book has copies that can be lent.
// Add and borrow actions are disabled when it is false.
func (b Book) Available() bool {
	return b.Copies > 0
}

// HasCover reports whether a cover file is attached.
func (b Book) HasCover() bool {
	return b.Cover != ""
}

// Matches reports whether term is a case-insensitive substring of the
// title or the author. An empty term matches everything.
func (b Book) Matches(term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(b.Title), term) ||
		strings.Contains(strings.ToLower(b.Author), term)
}

// Label is the "title - author" text shown in the loan book picker.
func (b Book) Label() string {
	return b.Title + " - " + b.Author
}

// NewBook carries the form fields of POST /livros.
type NewBook struct {
	Title       string
	Author      string
	ISBN        string
	Description string
	Category    string
	Year        int
	Pages       int
	Copies      int
}
