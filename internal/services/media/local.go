package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Local keeps uploads on the local filesystem under a single directory.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Remote() bool { return false }

func (l *Local) Put(ctx context.Context, data []byte, filename, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(l.dir, GenerateObjectName(filename, time.Now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

func (l *Local) Delete(_ context.Context, locator string) error {
	path, err := l.resolve(locator)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) Open(_ context.Context, locator string) (io.ReadCloser, error) {
	path, err := l.resolve(locator)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// resolve refuses locators that point outside the upload directory.
func (l *Local) resolve(locator string) (string, error) {
	dir, err := filepath.Abs(l.dir)
	if err != nil {
		return "", err
	}
	path, err := filepath.Abs(locator)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(path, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidLocator, locator)
	}
	return path, nil
}
