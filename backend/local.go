package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local is a Backend backed by the local file system. Each cache name maps
// to one file under the root directory. Saves go through a temp file and an
// atomic rename so a crashed write never leaves a torn blob behind.
type Local struct {
	root string
}

// NewLocal creates a file-backed backend rooted at the given directory.
// The directory is created on the first Save.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("backend: invalid cache name %q", name)
	}
	return filepath.Join(l.root, name+".cache"), nil
}

// Load reads the blob for name.
func (l *Local) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Save writes the blob atomically (temp file in the same directory, then
// rename).
func (l *Local) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return fmt.Errorf("backend: create directory %s: %w", l.root, err)
	}

	tmp, err := os.CreateTemp(l.root, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("backend: create temp file for %s: %w", name, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("backend: write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("backend: sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("backend: close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("backend: rename %s: %w", name, err)
	}
	return nil
}

// Remove deletes the blob for name.
func (l *Local) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Name returns "local".
func (l *Local) Name() string { return "local" }
