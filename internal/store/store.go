package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cleared-dev/planner/internal/log"
)

// ErrNotFound is returned when a document has never been written.
var ErrNotFound = errors.New("document not found")

const (
	extension    = ".json"
	backupSuffix = "-backup"
)

// Store maps document names onto files under a single root directory.
type Store struct {
	root   string
	logger *log.Logger
}

// New creates a Store rooted at dir. Call Init before first use.
func New(root string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Nop()
	}
	return &Store{root: root, logger: logger.WithComponent(log.ComponentStore)}
}

// Root returns the storage directory.
func (s *Store) Root() string {
	return s.root
}

// Init creates the storage directory.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating storage dir %s: %w", s.root, err)
	}
	return nil
}

// BackupName returns the name of the backup slot for a document.
func BackupName(name string) string {
	return name + backupSuffix
}

// Path returns the file holding a document.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name+extension)
}

// Exists reports whether a document has been written.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// ReadRaw returns the stored bytes of a document.
func (s *Store) ReadRaw(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// WriteRaw replaces a document's content. The new content is written to a
// temporary file in the same directory and renamed over the old one, so readers
// see either the previous or the new document.
func (s *Store) WriteRaw(name string, content []byte) error {
	path := s.Path(name)
	tmp, err := os.CreateTemp(s.root, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}

	s.logger.Debug("document written", log.FieldDocument, name, log.FieldCount, len(content))
	return nil
}

// Seed describes a document that must exist before the store is used.
type Seed struct {
	Name  string
	Build func(now time.Time) ([]byte, error)
}

// EnsureDefaults writes every seed whose document does not exist yet and returns
// the names it created. Existing documents are never touched.
func (s *Store) EnsureDefaults(seeds []Seed, now time.Time) ([]string, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	var created []string
	for _, seed := range seeds {
		if s.Exists(seed.Name) {
			continue
		}
		content, err := seed.Build(now)
		if err != nil {
			return created, fmt.Errorf("building default %s: %w", seed.Name, err)
		}
		if err := s.WriteRaw(seed.Name, content); err != nil {
			return created, fmt.Errorf("seeding %s: %w", seed.Name, err)
		}
		created = append(created, seed.Name)
	}

	if len(created) > 0 {
		s.logger.Info("seeded default documents", log.FieldOperation, log.OpSeed, log.FieldCount, len(created))
	}
	return created, nil
}
