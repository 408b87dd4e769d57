package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	slotDirPermissions  = 0750
	slotFilePermissions = 0600
)

// FileSlot stores the payload in a single file. Saves go to a temporary
// file in the same directory which is then renamed over the target, so a
// crash mid-save leaves the previous payload intact.
type FileSlot struct {
	name string
	path string
}

// NewFileSlot creates a slot stored at path.
func NewFileSlot(name, path string) *FileSlot {
	return &FileSlot{name: name, path: path}
}

// Name returns the slot name.
func (s *FileSlot) Name() string { return s.name }

// Path returns the file location.
func (s *FileSlot) Path() string { return s.path }

// Load reads the file.
func (s *FileSlot) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("loading slot %s: %w", s.name, err)
	}
	return data, nil
}

// Save writes data atomically.
func (s *FileSlot) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, slotDirPermissions); err != nil {
		return fmt.Errorf("creating slot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("writing slot %s: %w", s.name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // sync error takes precedence
		return fmt.Errorf("syncing slot %s: %w", s.name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing slot %s: %w", s.name, err)
	}
	if err := os.Chmod(tmpName, slotFilePermissions); err != nil {
		return fmt.Errorf("setting slot permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing slot %s: %w", s.name, err)
	}
	return nil
}

// Clear removes the file.
func (s *FileSlot) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing slot %s: %w", s.name, err)
	}
	return nil
}
