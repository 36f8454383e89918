// Package store persists learnt Q-tables.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeu5/hedge-rl/policies"
)

// ErrNotFound is returned when no table is stored under the name
var ErrNotFound = errors.New("table not found")

// Store saves and loads tables by name
type Store interface {
	Save(ctx context.Context, name string, table *policies.QTable) error
	Load(ctx context.Context, name string) (*policies.QTable, error)
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// FileStore keeps one file per table in a directory
type FileStore struct {
	Dir string
}

var _ Store = &FileStore{}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (f *FileStore) path(name string) string {
	return filepath.Join(f.Dir, name+".qtable")
}

func (f *FileStore) Save(_ context.Context, name string, table *policies.QTable) error {
	if err := checkName(name); err != nil {
		return err
	}
	return table.Record(f.path(name))
}

func (f *FileStore) Load(_ context.Context, name string) (*policies.QTable, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	table, err := policies.LoadQTable(f.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return table, err
}
