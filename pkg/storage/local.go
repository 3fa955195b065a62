package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var _ Storage = (*Local)(nil)

// Local stores files on disk under a media root directory.
type Local struct {
	root    string // absolute media root
	baseURL string // URL prefix files are served from, e.g. "/uploads"
	now     func() time.Time
}

// LocalOption configures a Local store.
type LocalOption func(*Local)

// WithClock overrides the clock used for collision suffixes. Tests use
// this to get deterministic filenames.
func WithClock(now func() time.Time) LocalOption {
	return func(l *Local) {
		l.now = now
	}
}

// NewLocal creates a disk-backed store rooted at root. The directory is
// created if absent.
func NewLocal(root, baseURL string, opts ...LocalOption) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: media root required", ErrInvalidConfig)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}

	l := &Local{
		root:    abs,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SecureFilename reduces a client-supplied filename to a safe basename:
// path components are discarded, whitespace becomes underscores, and
// anything outside [A-Za-z0-9_.-] is dropped.
func SecureFilename(name string) string {
	name = filepath.Base(filepath.ToSlash(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return name
}

// Put writes the reader's content under dir. When a file with the same
// name already exists, the new name gets a UTC unix timestamp appended
// before the extension so the existing file is never overwritten.
func (l *Local) Put(ctx context.Context, r io.Reader, dir, filename string) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := SecureFilename(filename)
	key := path.Join(dir, name)

	absDir, err := l.abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}

	absPath := filepath.Join(absDir, name)
	if _, err := os.Stat(absPath); err == nil {
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		name = fmt.Sprintf("%s_%d%s", stem, l.now().UTC().Unix(), ext)
		key = path.Join(dir, name)
		absPath = filepath.Join(absDir, name)
	}

	f, err := os.Create(absPath)
	if err != nil {
		return nil, fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(absPath)
		return nil, fmt.Errorf("storage: write file: %w", err)
	}
	if n == 0 {
		os.Remove(absPath)
		return nil, ErrEmptyFile
	}

	return &FileInfo{Key: key, Name: name, Size: n}, nil
}

// Open returns a reader for the stored file.
func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := l.abs(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	return f, nil
}

// Delete removes the stored file. A missing file is a no-op.
func (l *Local) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := l.abs(key)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}

// Exists reports whether the key resolves to an existing file.
func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	abs, err := l.abs(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// URL returns the serving URL for a key.
func (l *Local) URL(key string) string {
	return l.baseURL + "/" + path.Clean(strings.TrimLeft(key, "/"))
}

// Root returns the absolute media root directory.
func (l *Local) Root() string {
	return l.root
}

// abs resolves a key against the root, rejecting traversal outside it.
func (l *Local) abs(key string) (string, error) {
	clean := path.Clean("/" + key)
	abs := filepath.Join(l.root, filepath.FromSlash(clean))
	if abs != l.root && !strings.HasPrefix(abs, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return abs, nil
}
