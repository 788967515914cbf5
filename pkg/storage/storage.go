package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felipevidias/imgsim/pkg/core/document"
)

var (
	// ErrDocumentNotFound is returned when no document with the given name exists
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentAlreadyExists is returned when inserting a document whose name is already taken
	ErrDocumentAlreadyExists = errors.New("document already exists")
)

// DocumentStore is the interface for feature-vector caches. Documents are
// keyed by name (the source image file name), so a cache survives across runs
// even though numeric IDs are reassigned at every dataset load.
type DocumentStore interface {
	// Insert adds a new document to the store
	Insert(doc *document.Document) error

	// Get retrieves a document by name
	Get(name string) (*document.Document, error)

	// Update replaces an existing document
	Update(doc *document.Document) error

	// Delete removes a document by name
	Delete(name string) error

	// List returns all document names
	List() ([]string, error)

	// Count returns the number of documents in the store
	Count() (int, error)

	// Close closes the store
	Close() error
}

// MemoryStore is an in-memory implementation of DocumentStore
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*document.Document
}

// NewMemoryStore creates a new in-memory document store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*document.Document),
	}
}

func (s *MemoryStore) Insert(doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.Name]; exists {
		return ErrDocumentAlreadyExists
	}

	// Store a copy to prevent modification of the original
	s.docs[doc.Name] = doc.Copy()
	return nil
}

func (s *MemoryStore) Get(name string) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.docs[name]
	if !exists {
		return nil, ErrDocumentNotFound
	}

	// Return a copy to prevent modification of the stored document
	return doc.Copy(), nil
}

func (s *MemoryStore) Update(doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.Name]; !exists {
		return ErrDocumentNotFound
	}

	s.docs[doc.Name] = doc.Copy()
	return nil
}

func (s *MemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[name]; !exists {
		return ErrDocumentNotFound
	}

	delete(s.docs, name)
	return nil
}

func (s *MemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}

	return names, nil
}

func (s *MemoryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.docs), nil
}

func (s *MemoryStore) Close() error {
	// Nothing to do for memory store
	return nil
}

// FileStore is a file-based implementation of DocumentStore. Each document is
// written to its own .feat file under the base directory and the whole
// directory is loaded into memory on first use.
type FileStore struct {
	baseDir  string
	memStore *MemoryStore
	mu       sync.Mutex
	isLoaded bool
}

// NewFileStore creates a new file-based document store
func NewFileStore(baseDir string) (*FileStore, error) {
	// Ensure the directory exists
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &FileStore{
		baseDir:  baseDir,
		memStore: NewMemoryStore(),
		isLoaded: false,
	}, nil
}

// ensureLoaded loads all documents from disk if not already loaded
func (s *FileStore) ensureLoaded() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isLoaded {
		return nil
	}

	// Read document files from the cache directory
	files, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".feat" {
			continue
		}

		// Read the document file
		path := filepath.Join(s.baseDir, file.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read document file %s: %w", path, err)
		}

		// Decode the document
		doc, err := document.Decode(data)
		if err != nil {
			return fmt.Errorf("failed to decode document from file %s: %w", path, err)
		}

		// Store in memory
		s.memStore.docs[doc.Name] = doc
	}

	s.isLoaded = true
	return nil
}

func (s *FileStore) Insert(doc *document.Document) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}

	// Insert into memory first
	if err := s.memStore.Insert(doc); err != nil {
		return err
	}

	// Write to disk
	return s.saveDocument(doc)
}

func (s *FileStore) Get(name string) (*document.Document, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	return s.memStore.Get(name)
}

func (s *FileStore) Update(doc *document.Document) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}

	// Update in memory
	if err := s.memStore.Update(doc); err != nil {
		return err
	}

	// Update on disk
	return s.saveDocument(doc)
}

func (s *FileStore) Delete(name string) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}

	// Delete from memory
	if err := s.memStore.Delete(name); err != nil {
		return err
	}

	// Delete from disk
	path := filepath.Join(s.baseDir, name+".feat")
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete document file: %w", err)
	}

	return nil
}

func (s *FileStore) List() ([]string, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	return s.memStore.List()
}

func (s *FileStore) Count() (int, error) {
	if err := s.ensureLoaded(); err != nil {
		return 0, err
	}

	return s.memStore.Count()
}

func (s *FileStore) Close() error {
	// Nothing special to do, as we write documents to disk on every change
	return nil
}

// saveDocument writes a document to disk
func (s *FileStore) saveDocument(doc *document.Document) error {
	data := doc.Encode()
	path := filepath.Join(s.baseDir, doc.Name+".feat")

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write document to file: %w", err)
	}

	return nil
}
