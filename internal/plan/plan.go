package plan

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cleared-dev/planner/internal/backup"
	"github.com/cleared-dev/planner/internal/category"
	"github.com/cleared-dev/planner/internal/keylock"
	"github.com/cleared-dev/planner/internal/log"
	"github.com/cleared-dev/planner/internal/store"
)

// WriteError reports a failed persist of a category document.
type WriteError struct {
	Op       string
	Category string
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Category, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Service reads and writes the thirteen category documents. Writes to the same
// category are serialized within the process.
type Service struct {
	store   *store.Store
	backups *backup.Manager
	locks   keylock.Locker
	logger  *log.Logger
	now     func() time.Time
	version atomic.Uint64
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(s *store.Store, backups *backup.Manager, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	svc := &Service{
		store:   s,
		backups: backups,
		logger:  logger.WithComponent(log.ComponentPlan),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Get returns a category document, or nil if it is unknown, missing or unreadable.
// Failures are logged, never returned.
func (s *Service) Get(name string) *category.Document {
	doc, err := s.read(name)
	if err != nil {
		s.logger.Warn("category read failed",
			log.FieldCategory, name,
			log.FieldOperation, log.OpRead,
			log.FieldError, err)
		return nil
	}
	return doc
}

func (s *Service) read(name string) (*category.Document, error) {
	if !category.IsCategory(name) {
		return nil, fmt.Errorf("%w: %q", category.ErrUnknownCategory, name)
	}
	data, err := s.store.ReadRaw(name)
	if err != nil {
		return nil, err
	}
	return category.Decode(name, data)
}

// Update backs up the current document, merges patch over it, stamps UpdatedAt
// and persists the result.
func (s *Service) Update(name string, patch category.Patch) (*category.Document, error) {
	d, ok := category.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("update %s: %w", name, category.ErrUnknownCategory)
	}
	if err := patch.Validate(d); err != nil {
		return nil, fmt.Errorf("update %s: %w", name, err)
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	if res, err := s.backups.BackupBeforeWrite(name); err != nil {
		s.logger.Error("backup before write failed",
			log.FieldCategory, name,
			log.FieldOperation, log.OpBackup,
			log.FieldError, err)
	} else {
		s.logger.Debug("backup before write",
			log.FieldCategory, name,
			log.FieldStatus, string(res.Status))
	}

	current, err := s.read(name)
	if err != nil {
		s.logger.Warn("current document unreadable, merging over default shape",
			log.FieldCategory, name,
			log.FieldError, err)
		current = d.Default(s.now())
	}

	merged := current.Merge(patch)
	merged.UpdatedAt = s.stamp(current.UpdatedAt)

	if err := s.write(merged); err != nil {
		return nil, &WriteError{Op: log.OpUpdate, Category: name, Err: err}
	}

	s.logger.Info("category updated", log.FieldCategory, name, log.FieldOperation, log.OpUpdate)
	return merged, nil
}

// stamp returns the current time, moved past prev if the clock has not advanced.
func (s *Service) stamp(prev time.Time) time.Time {
	now := s.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond).UTC()
	}
	return now
}

func (s *Service) write(doc *category.Document) error {
	data, err := category.Encode(doc)
	if err != nil {
		return err
	}
	if err := s.store.WriteRaw(doc.Category, data); err != nil {
		return err
	}
	s.version.Add(1)
	return nil
}

// Version counts the category writes completed through the Service. It changes
// after every successful Update, Save, Restore and ClearAll.
func (s *Service) Version() uint64 {
	return s.version.Load()
}

// Save persists a document as is, without a backup. The caller must hold the
// category lock (see Lock).
func (s *Service) Save(doc *category.Document) error {
	if !category.IsCategory(doc.Category) {
		return fmt.Errorf("save %s: %w", doc.Category, category.ErrUnknownCategory)
	}
	return s.write(doc)
}

// Lock acquires the category's write lock.
func (s *Service) Lock(name string) (unlock func()) {
	return s.locks.Lock(name)
}

// Stamp returns a timestamp strictly after prev, for callers persisting through Save.
func (s *Service) Stamp(prev time.Time) time.Time {
	return s.stamp(prev)
}

// Default returns the default shape of a category stamped with the current time.
func (s *Service) Default(name string) (*category.Document, error) {
	return category.Default(name, s.now())
}

// Backup snapshots a category under its write lock.
func (s *Service) Backup(name string) (backup.Result, error) {
	unlock := s.locks.Lock(name)
	defer unlock()
	return s.backups.BackupBeforeWrite(name)
}

// Restore copies a category's backup over its document under its write lock.
func (s *Service) Restore(name string) (backup.Result, error) {
	unlock := s.locks.Lock(name)
	defer unlock()
	res, err := s.backups.Restore(name)
	if err == nil && res.Success {
		s.version.Add(1)
	}
	return res, err
}

// HasBackup reports whether a category has a backup slot.
func (s *Service) HasBackup(name string) bool {
	return s.backups.HasBackup(name)
}

// ClearAll resets every category document to its default shape. Backups are
// neither taken nor modified, so a reset cannot be undone through Restore.
func (s *Service) ClearAll() error {
	names := category.Names()
	unlock := s.locks.LockAll(names)
	defer unlock()

	now := s.now()
	var errs []error
	for _, d := range category.All() {
		if err := s.write(d.Default(now)); err != nil {
			errs = append(errs, &WriteError{Op: log.OpClear, Category: d.Name, Err: err})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.logger.Info("all categories reset", log.FieldOperation, log.OpClear, log.FieldCount, len(names))
	return nil
}
