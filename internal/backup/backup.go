package backup

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/cleared-dev/planner/internal/category"
	"github.com/cleared-dev/planner/internal/log"
	"github.com/cleared-dev/planner/internal/store"
)

// Status classifies the outcome of a backup or restore.
type Status string

const (
	StatusBackedUp        Status = "backed-up"
	StatusAlreadyBackedUp Status = "already-backed-up"
	StatusNothingToBackup Status = "nothing-to-back-up"
	StatusNotCategory     Status = "not-a-category"
	StatusNoBackup        Status = "no-backup"
	StatusRestored        Status = "restored"
)

// Result is the structured outcome reported to callers.
type Result struct {
	Success   bool
	Status    Status
	Message   string
	Timestamp time.Time
}

// Manager snapshots category documents into their backup slots.
type Manager struct {
	store  *store.Store
	logger *log.Logger
	now    func() time.Time
}

// NewManager creates a Manager over a store.
func NewManager(s *store.Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		store:  s,
		logger: logger.WithComponent(log.ComponentBackup),
		now:    time.Now,
	}
}

// BackupBeforeWrite copies a category's current content into its backup slot,
// unless the slot already holds identical bytes. Only I/O failures are errors.
func (m *Manager) BackupBeforeWrite(name string) (Result, error) {
	if !category.IsCategory(name) {
		return Result{Status: StatusNotCategory, Message: fmt.Sprintf("%s is not a projection category", name)}, nil
	}

	current, err := m.store.ReadRaw(name)
	if errors.Is(err, store.ErrNotFound) {
		return Result{Success: true, Status: StatusNothingToBackup, Message: "nothing to back up"}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("backing up %s: %w", name, err)
	}

	slot := store.BackupName(name)
	previous, err := m.store.ReadRaw(slot)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Result{}, fmt.Errorf("backing up %s: %w", name, err)
	}
	if err == nil && bytes.Equal(previous, current) {
		return Result{Success: true, Status: StatusAlreadyBackedUp, Message: "already backed up"}, nil
	}

	if err := m.store.WriteRaw(slot, current); err != nil {
		return Result{}, fmt.Errorf("backing up %s: %w", name, err)
	}

	ts := m.now().UTC()
	m.logger.Info("backup written", log.FieldCategory, name, log.FieldOperation, log.OpBackup)
	return Result{
		Success:   true,
		Status:    StatusBackedUp,
		Message:   fmt.Sprintf("backup of %s created", name),
		Timestamp: ts,
	}, nil
}

// Restore copies a category's backup slot verbatim over the primary document.
func (m *Manager) Restore(name string) (Result, error) {
	if !category.IsCategory(name) {
		return Result{Status: StatusNotCategory, Message: fmt.Sprintf("%s is not a projection category", name)}, nil
	}

	content, err := m.store.ReadRaw(store.BackupName(name))
	if errors.Is(err, store.ErrNotFound) {
		return Result{Status: StatusNoBackup, Message: "no backup available"}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("restoring %s: %w", name, err)
	}

	if err := m.store.WriteRaw(name, content); err != nil {
		return Result{}, fmt.Errorf("restoring %s: %w", name, err)
	}

	ts := m.now().UTC()
	m.logger.Info("backup restored", log.FieldCategory, name, log.FieldOperation, log.OpRestore)
	return Result{
		Success:   true,
		Status:    StatusRestored,
		Message:   fmt.Sprintf("%s restored from backup", name),
		Timestamp: ts,
	}, nil
}

// HasBackup reports whether a category has a backup slot.
func (m *Manager) HasBackup(name string) bool {
	return category.IsCategory(name) && m.store.Exists(store.BackupName(name))
}
