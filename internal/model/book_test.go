package model

import "testing"

func TestBook_Available(t *testing.T) {
	t.Parallel()

	if (Book{Copies: 0}).Available() {
		t.Error("book with zero copies should not be available")
	}
	if !(Book{Copies: 2}).Available() {
		t.Error("book with copies should be available")
	}
}

func TestBook_Matches(t *testing.T) {
	t.Parallel()

	book := Book{Title: "JavaScript: The Good Parts", Author: "Douglas Crockford"}

	tests := []struct {
		term string
		want bool
	}{
		{"", true},
		{"javascript", true},
		{"CROCK", true},
		{"python", false},
	}

	for _, tt := range tests {
		if got := book.Matches(tt.term); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.term, got, tt.want)
		}
	}
}

func TestUser_MatchesAndLabel(t *testing.T) {
	t.Parallel()

	user := User{ID: 1, Name: "Ana Souza", Email: "ana@biblioteca.br"}

	if !user.Matches("souza") || !user.Matches("BIBLIOTECA") {
		t.Error("expected case-insensitive match on name and email")
	}
	if user.Matches("carlos") {
		t.Error("unexpected match")
	}
	if got := user.Label(); got != "Ana Souza (ana@biblioteca.br)" {
		t.Errorf("Label() = %q", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	valid := []string{
		"2025-03-15T10:00:00Z",
		"2025-03-15T10:00:00.123-03:00",
		"2025-03-15T10:00:00",
		"2025-03-15T10:00:00.654321",
		"2025-03-15",
	}
	for _, s := range valid {
		ts, err := ParseTimestamp(s)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) error: %v", s, err)
			continue
		}
		if ts.Year() != 2025 || ts.Month() != 3 {
			t.Errorf("ParseTimestamp(%q) = %v", s, ts)
		}
	}

	if _, err := ParseTimestamp("15/03/2025"); err == nil {
		t.Error("expected error for unsupported layout")
	}
}
