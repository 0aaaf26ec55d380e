package catalog

import (
	"testing"

	"bookshelf/internal/models"
)

func TestFormatISBN(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "N/A"},
		{"9784798177236", "978-4-79817-723-6"},
		{"978-4-7981-7723-6", "978-4-79817-723-6"},
		{"978 4 7981 7723 6", "978-4-79817-723-6"},
		{"12345", "N/A (invalid ISBN)"},
		{"4798177236", "N/A (invalid ISBN)"},
	}

	for _, tc := range cases {
		got := FormatISBN(tc.in)
		if got != tc.want {
			t.Errorf("FormatISBN(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayTitle(t *testing.T) {
	book := models.Book{
		Title:              "Go言語",
		Edition:            "第2版",
		SubTitle:           "実践入門",
		LabelName:          "技術",
		ClassificationCode: "007",
	}

	got := DisplayTitle(book)
	want := "Go言語 第2版  ―実践入門 (技術 007)"
	if got != want {
		t.Errorf("DisplayTitle = %q, want %q", got, want)
	}
}

func TestDisplayTitleBareTitle(t *testing.T) {
	book := models.Book{Title: "タイトルのみ"}

	if got := DisplayTitle(book); got != "タイトルのみ" {
		t.Errorf("DisplayTitle = %q, want bare title", got)
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(0); got != "-" {
		t.Errorf("FormatPrice(0) = %q, want -", got)
	}
	if got := FormatPrice(500); got != "¥500" {
		t.Errorf("FormatPrice(500) = %q, want ¥500", got)
	}
	if got := FormatPrice(12800); got != "¥12,800" {
		t.Errorf("FormatPrice(12800) = %q, want ¥12,800", got)
	}
}
