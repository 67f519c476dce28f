package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"ontology-mapper/internal/models"
)

// ErrNotFound means no ontology document exists at the given path yet.
// Callers should tell the user to run extraction first.
var ErrNotFound = errors.New("ontology document not found")

// CorruptError means a document exists but does not parse as an ontology.
// Distinct from ErrNotFound so callers can tell the two apart.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("ontology document %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Save writes the ontology as pretty-printed JSON, creating the parent
// directory when needed. Each run replaces the whole document.
func Save(ontology *models.Ontology, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(ontology, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ontology document: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ontology document: %w", err)
	}
	return nil
}

// Load reads the ontology document at path. A missing file yields
// ErrNotFound; an unparseable one yields a CorruptError.
func Load(path string) (*models.Ontology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read ontology document: %w", err)
	}

	var ontology models.Ontology
	if err := json.Unmarshal(data, &ontology); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	return &ontology, nil
}

// Store holds the loaded document for the read API. It loads lazily on
// first access, caches, and reloads only when asked. Safe for concurrent
// readers.
type Store struct {
	path   string
	logger *zap.Logger

	mu  sync.RWMutex
	doc *models.Ontology
}

func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// Path returns the document location the store reads from.
func (s *Store) Path() string {
	return s.path
}

// Get returns the cached document, loading it from disk on first use.
func (s *Store) Get() (*models.Ontology, error) {
	s.mu.RLock()
	doc := s.doc
	s.mu.RUnlock()
	if doc != nil {
		return doc, nil
	}
	return s.Reload()
}

// Reload re-reads the document from disk and replaces the cached copy. The
// cache is left untouched when loading fails.
func (s *Store) Reload() (*models.Ontology, error) {
	doc, err := Load(s.path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	s.logger.Info("ontology document loaded",
		zap.String("path", s.path),
		zap.Int("databases", len(doc.Databases)),
		zap.Int("relationships", len(doc.Relationships)),
	)
	return doc, nil
}
