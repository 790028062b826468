package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
)

// Collection is a whole-file JSON array of T. Every mutation loads the
// in-memory copy, applies a change, and writes the full array back under a
// single-writer lock. The in-memory state only advances once the write has
// been renamed into place, so a failed write leaves the last known-good
// items visible.
type Collection[T any] struct {
	mu    sync.RWMutex
	path  string
	items []T
}

// Open loads the collection stored at path. A missing file is an empty
// collection. A file that cannot be parsed is also treated as empty.
func Open[T any](path string) (*Collection[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, domain.NewStorageError("open "+path, err)
	}

	c := &Collection[T]{path: path, items: []T{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("collection file not found, starting empty",
				"path", path,
			)

			return c, nil
		}

		return nil, domain.NewStorageError("read "+path, err)
	}

	if len(data) == 0 {
		return c, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("collection file is corrupt, treating as empty",
			"path", path,
			"error", err,
		)

		return c, nil
	}

	if items != nil {
		c.items = items
	}

	slog.Debug("collection loaded",
		"path", path,
		"count", len(c.items),
	)

	return c, nil
}

func (c *Collection[T]) Path() string {
	return c.path
}

// Items returns a shallow copy of the current items.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)

	return out
}

// Mutate runs fn on a copy of the items and persists the slice it returns.
// An error from fn aborts without writing and is returned unchanged; a
// persistence failure is returned as a *domain.StorageError.
func (c *Collection[T]) Mutate(op string, fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	working := make([]T, len(c.items))
	copy(working, c.items)

	next, err := fn(working)
	if err != nil {
		return err
	}

	if next == nil {
		next = []T{}
	}

	if err := c.write(next); err != nil {
		slog.Error("failed to persist collection",
			"path", c.path,
			"op", op,
			"error", err,
		)

		return domain.NewStorageError(op, err)
	}

	c.items = next

	return nil
}

func (c *Collection[T]) write(items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	dir := filepath.Dir(c.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()
	committed := false

	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("replace %s: %w", c.path, err)
	}

	committed = true

	return nil
}
