package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Sink receives rendered documents keyed by submission identifier.
// Batch workers call Put concurrently.
type Sink interface {
	Put(id, doc string) error
}

// DirSink writes each document to <dir>/<id>.xml.
type DirSink struct {
	dir string
}

// NewDirSink creates the output directory if it doesn't exist.
func NewDirSink(dir string) (*DirSink, error) {
	err := os.MkdirAll(dir, dirPerm)
	if err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &DirSink{dir: dir}, nil
}

// Path returns the file path used for an identifier.
func (s *DirSink) Path(id string) string {
	return filepath.Join(s.dir, id+".xml")
}

// Put writes one document.
func (s *DirSink) Put(id, doc string) error {
	err := os.WriteFile(s.Path(id), []byte(doc), filePerm)
	if err != nil {
		return fmt.Errorf("writing document %s: %w", id, err)
	}

	return nil
}

// MemorySink collects documents in memory, keyed by identifier.
type MemorySink struct {
	mu   sync.Mutex
	docs map[string]string
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{docs: make(map[string]string)}
}

// Put stores one document.
func (s *MemorySink) Put(id, doc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[id] = doc

	return nil
}

// Get returns the stored document for id.
func (s *MemorySink) Get(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]

	return doc, ok
}

// Len returns the number of stored documents.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.docs)
}

// MultiSink forwards every document to each sink in order, stopping on
// the first error.
type MultiSink []Sink

// Put fans one document out to all sinks.
func (m MultiSink) Put(id, doc string) error {
	for _, s := range m {
		if err := s.Put(id, doc); err != nil {
			return err
		}
	}

	return nil
}
