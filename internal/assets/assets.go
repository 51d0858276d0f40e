// Package assets resolves book files and media referenced by the catalog.
package assets

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

// Asset is a resolved file that exists at the time it was looked up.
type Asset struct {
	Name string
	Path string
	Size int64
}

// Library looks up files under a books directory and a media directory.
type Library struct {
	fs       afero.Fs
	booksDir string
	mediaDir string
	logger   *slog.Logger
}

// NewLibrary creates a Library over fs. Use afero.NewOsFs() in production.
func NewLibrary(fs afero.Fs, booksDir, mediaDir string, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		fs:       fs,
		booksDir: booksDir,
		mediaDir: mediaDir,
		logger:   logger.With("component", "assets"),
	}
}

// Book resolves a book file by name.
func (l *Library) Book(name string) (Asset, bool) {
	return l.lookup(l.booksDir, name)
}

// Media resolves a media file (banner images) by name.
func (l *Library) Media(name string) (Asset, bool) {
	return l.lookup(l.mediaDir, name)
}

// Open returns a reader for a previously resolved asset.
func (l *Library) Open(a Asset) (io.ReadCloser, error) {
	f, err := l.fs.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset %q: %w", a.Name, err)
	}
	return f, nil
}

func (l *Library) lookup(dir, name string) (Asset, bool) {
	// Names come from catalog content and must stay inside dir.
	if name == "" || filepath.Base(name) != name || name == ".." {
		return Asset{}, false
	}

	path := filepath.Join(dir, name)
	info, err := l.fs.Stat(path)
	if err != nil {
		l.logger.Debug("Asset not found", "path", path, "error", err)
		return Asset{}, false
	}
	if !info.Mode().IsRegular() {
		l.logger.Warn("Asset path is not a regular file", "path", path)
		return Asset{}, false
	}
	return Asset{Name: name, Path: path, Size: info.Size()}, true
}
