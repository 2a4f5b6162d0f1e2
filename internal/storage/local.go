package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// UploadDir stores uploads on local disk as "<unix-millis>-<name>".
type UploadDir struct {
	dir string
	now func() time.Time
}

const maxNameCollisions = 100

var _ TempStore = (*UploadDir)(nil)

// NewUploadDir creates dir if needed and returns a store rooted at it.
func NewUploadDir(dir string) (*UploadDir, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadDir{dir: dir, now: time.Now}, nil
}

// Save copies r into a timestamp-prefixed file under the upload dir.
// A partially written file is removed on error.
func (u *UploadDir) Save(ctx context.Context, r io.Reader, originalName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, p, err := u.create(SanitizeFilename(originalName))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(p)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return p, nil
}

// create opens a new file, adding a counter when two uploads of the same
// name land in the same millisecond.
func (u *UploadDir) create(name string) (*os.File, string, error) {
	ms := u.now().UnixMilli()
	p := filepath.Join(u.dir, fmt.Sprintf("%d-%s", ms, name))
	for n := 1; ; n++ {
		f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, p, nil
		}
		if !os.IsExist(err) || n > maxNameCollisions {
			return nil, "", err
		}
		p = filepath.Join(u.dir, fmt.Sprintf("%d-%d-%s", ms, n, name))
	}
}

// Remove deletes an upload. Missing files are not an error.
func (u *UploadDir) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SanitizeFilename keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with '_'.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "upload"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
