package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileSlot keeps the slot in a single file, replaced atomically on save.
type FileSlot struct {
	Path string
}

// Load reads the file.
func (f FileSlot) Load(ctx context.Context) ([]byte, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return b, nil
}

// Save writes to a temp file and renames it over the slot, so a failed
// write never clobbers the previous contents.
func (f FileSlot) Save(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create slot dir: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("replace %s: %w", f.Path, err)
	}
	return nil
}

// Clear removes the file.
func (f FileSlot) Clear(ctx context.Context) error {
	err := os.Remove(f.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", f.Path, err)
	}
	return nil
}
