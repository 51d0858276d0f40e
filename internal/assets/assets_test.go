package assets_test

import (
	"io"
	"testing"

	"github.com/spf13/afero"

	"github.com/edgard/shelfbot/internal/assets"
)

func newLibrary(t *testing.T) *assets.Library {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "books/Код Денег.pdf", []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "media/banner.jpg", []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fs.MkdirAll("books/nested", 0o755); err != nil {
		t.Fatal(err)
	}
	return assets.NewLibrary(fs, "books", "media", nil)
}

func TestLibraryLookup(t *testing.T) {
	t.Parallel()
	lib := newLibrary(t)

	tests := []struct {
		name   string
		lookup func(string) (assets.Asset, bool)
		file   string
		wantOK bool
	}{
		{name: "existing book", lookup: lib.Book, file: "Код Денег.pdf", wantOK: true},
		{name: "missing book", lookup: lib.Book, file: "Управляй или Подчиняйся.pdf", wantOK: false},
		{name: "directory is not a book", lookup: lib.Book, file: "nested", wantOK: false},
		{name: "path traversal", lookup: lib.Book, file: "../media/banner.jpg", wantOK: false},
		{name: "empty name", lookup: lib.Book, file: "", wantOK: false},
		{name: "existing media", lookup: lib.Media, file: "banner.jpg", wantOK: true},
		{name: "book is not media", lookup: lib.Media, file: "Код Денег.pdf", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, ok := tt.lookup(tt.file)
			if ok != tt.wantOK {
				t.Fatalf("lookup(%q) ok = %v, want %v", tt.file, ok, tt.wantOK)
			}
			if ok && a.Name != tt.file {
				t.Errorf("asset name = %q, want %q", a.Name, tt.file)
			}
		})
	}
}

func TestLibraryOpen(t *testing.T) {
	t.Parallel()
	lib := newLibrary(t)

	a, ok := lib.Book("Код Денег.pdf")
	if !ok {
		t.Fatal("expected asset to resolve")
	}
	if a.Size != int64(len("%PDF-1.4")) {
		t.Errorf("size = %d", a.Size)
	}

	rc, err := lib.Open(a)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("content = %q", data)
	}

	if _, err := lib.Open(assets.Asset{Name: "gone", Path: "books/gone"}); err == nil {
		t.Error("Open() of missing file should fail")
	}
}
