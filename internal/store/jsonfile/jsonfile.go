// Package jsonfile stores the todo Collection as a single, human-readable JSON
// document that is replaced atomically on every save.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"todo-app/internal/models"
	"todo-app/internal/store"
)

type Backend struct {
	path string
}

func New(path string) *Backend {
	return &Backend{path: path}
}

func (b *Backend) Path() string { return b.path }

func (b *Backend) Load(ctx context.Context) (models.Collection, error) {
	if err := ctx.Err(); err != nil {
		return models.Collection{}, err
	}
	raw, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.EmptyCollection(), nil
		}
		return models.Collection{}, fmt.Errorf("%w: read %s: %v", store.ErrStorageUnavailable, b.path, err)
	}
	c, err := decode(raw)
	if err != nil {
		return models.Collection{}, fmt.Errorf("%w: %s: %v", store.ErrStorageCorrupt, b.path, err)
	}
	return c, nil
}

func decode(raw []byte) (models.Collection, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return models.Collection{}, fmt.Errorf("json decode: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return models.Collection{}, err
	}
	var c models.Collection
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.Collection{}, fmt.Errorf("json unmarshal: %w", err)
	}
	if c.Todos == nil {
		c.Todos = []models.Todo{}
	}
	return c, nil
}

// Save writes c to a temp file next to the target and renames it into place.
// The rename is the commit point.
func (b *Backend) Save(ctx context.Context, c models.Collection) error {
	if c.Todos == nil {
		c.Todos = []models.Todo{}
	}
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", store.ErrStorageUnavailable, dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", store.ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temp: %v", store.ErrStorageUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync temp: %v", store.ErrStorageUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp: %v", store.ErrStorageUnavailable, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: chmod temp: %v", store.ErrStorageUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("%w: rename into place: %v", store.ErrStorageUnavailable, err)
	}
	committed = true
	return nil
}

var _ store.Backend = (*Backend)(nil)
