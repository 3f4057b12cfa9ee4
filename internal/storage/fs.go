package storage

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/redcode-editor/redcode/internal/document"
	"github.com/redcode-editor/redcode/internal/errors"
	"github.com/redcode-editor/redcode/internal/language"
)

// tempPrefix marks in-progress atomic writes. The watcher ignores these names.
const tempPrefix = ".redcode-"

const filePerm fs.FileMode = 0644

// FS implements Storage over an afero filesystem. Use NewOSFS for the real
// disk and NewMemFS in tests. It is safe for concurrent use as far as the
// underlying afero.Fs is.
type FS struct {
	fs afero.Fs
}

var (
	_ Storage = (*FS)(nil)
	_ Lister  = (*FS)(nil)
)

// NewFS wraps an afero filesystem.
func NewFS(fsys afero.Fs) *FS {
	return &FS{fs: fsys}
}

// NewOSFS returns an FS backed by the operating system.
func NewOSFS() *FS {
	return NewFS(afero.NewOsFs())
}

// NewMemFS returns an FS backed by an in-memory filesystem.
func NewMemFS() *FS {
	return NewFS(afero.NewMemMapFs())
}

// Afero exposes the underlying filesystem.
func (s *FS) Afero() afero.Fs { return s.fs }

// Path converts a locator (plain path or file:// URI) to a filesystem path.
func Path(locator string) (string, error) {
	if !strings.Contains(locator, "://") {
		if locator == "" {
			return "", fmt.Errorf("empty locator")
		}
		return filepath.Clean(locator), nil
	}
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("parse locator: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported locator scheme %q", u.Scheme)
	}
	if u.Path == "" {
		return "", fmt.Errorf("locator %q has no path", locator)
	}
	return filepath.FromSlash(u.Path), nil
}

// Read returns the content at locator.
func (s *FS) Read(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStorageError(errors.OpRead, locator, err)
	}
	p, err := Path(locator)
	if err != nil {
		return nil, errors.NewStorageError(errors.OpRead, locator, err)
	}
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return nil, errors.NewStorageError(errors.OpRead, locator, err)
	}
	return data, nil
}

// Write atomically replaces the content at locator: the data goes to a temp
// file in the same directory which is then renamed over the target.
// A context cancelled before the rename leaves the target untouched.
func (s *FS) Write(ctx context.Context, locator string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return errors.NewStorageError(errors.OpWrite, locator, err)
	}
	p, err := Path(locator)
	if err != nil {
		return errors.NewStorageError(errors.OpWrite, locator, err)
	}
	if err := s.atomicWrite(ctx, p, data); err != nil {
		return errors.NewStorageError(errors.OpWrite, locator, err)
	}
	return nil
}

func (s *FS) atomicWrite(ctx context.Context, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	perm := filePerm
	if info, err := s.fs.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		perm = info.Mode().Perm()
	}

	tmp, err := afero.TempFile(s.fs, dir, tempPrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = s.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := s.fs.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	// Last point at which a cancel can still leave the target untouched.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

// ResolveDisplayName returns the trailing segment of the locator.
func (s *FS) ResolveDisplayName(locator string) string {
	if p, err := Path(locator); err == nil {
		return document.DisplayName(p)
	}
	return document.DisplayName(locator)
}

// Create makes an empty file name under parentLocator. If name has no
// extension, one is chosen from mimeType. Existing files are never
// overwritten: "a.txt" becomes "a (1).txt", "a (2).txt", and so on.
func (s *FS) Create(ctx context.Context, parentLocator, name, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.NewStorageError(errors.OpCreate, parentLocator, err)
	}
	dir, err := Path(parentLocator)
	if err != nil {
		return "", errors.NewStorageError(errors.OpCreate, parentLocator, err)
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", errors.NewStorageError(errors.OpCreate, parentLocator, fmt.Errorf("invalid file name %q", name))
	}
	if filepath.Ext(name) == "" && mimeType != "" {
		if l, ok := language.FromMIMEType(mimeType); ok {
			name += "." + l.Extension()
		}
	}
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return "", errors.NewStorageError(errors.OpCreate, parentLocator, err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		f, err := s.fs.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
		if err == nil {
			if err := f.Close(); err != nil {
				return "", errors.NewStorageError(errors.OpCreate, candidate, err)
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", errors.NewStorageError(errors.OpCreate, candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}

// Delete removes the file at locator.
func (s *FS) Delete(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewStorageError(errors.OpDelete, locator, err)
	}
	p, err := Path(locator)
	if err != nil {
		return errors.NewStorageError(errors.OpDelete, locator, err)
	}
	if err := s.fs.Remove(p); err != nil {
		return errors.NewStorageError(errors.OpDelete, locator, err)
	}
	return nil
}

// List returns the regular files directly under parentLocator, sorted.
// In-progress temp files are skipped.
func (s *FS) List(ctx context.Context, parentLocator string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStorageError(errors.OpRead, parentLocator, err)
	}
	dir, err := Path(parentLocator)
	if err != nil {
		return nil, errors.NewStorageError(errors.OpRead, parentLocator, err)
	}
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, errors.NewStorageError(errors.OpRead, parentLocator, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
