// ABOUTME: Storage opens the catalog database and exposes the product store
// ABOUTME: Entry point used by the CLI, MCP server and sync commands
package sqlite

import (
	"fmt"
)

// Storage owns the database handle behind a ProductStore
type Storage struct {
	*ProductStore
	db *DB
}

// NewStorage opens the catalog at the default XDG location
func NewStorage() (*Storage, error) {
	return NewStorageWithPath(DefaultDBPath())
}

// NewStorageWithPath opens the catalog at dbPath
func NewStorageWithPath(dbPath string) (*Storage, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Storage{ProductStore: NewProductStore(db), db: db}, nil
}

// NewStorageInMemory creates a throwaway catalog (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, err
	}
	return &Storage{ProductStore: NewProductStore(db), db: db}, nil
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}
