package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/planner/internal/keylock"
	"github.com/cleared-dev/planner/internal/log"
	"github.com/cleared-dev/planner/internal/store"
)

// Collection names.
const (
	Clients      = "clients"
	Products     = "products"
	Projects     = "projects"
	Services     = "services"
	Transactions = "transactions"
	Users        = "users"
)

// Reserved record keys managed by the repository.
const (
	KeyID        = "id"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
)

var (
	// ErrNotFound is returned when no record carries the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownCollection is returned for a name outside the known collections.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Collections returns every collection name.
func Collections() []string {
	return []string{Clients, Products, Projects, Services, Transactions, Users}
}

// IsCollection reports whether name is a known collection.
func IsCollection(name string) bool {
	return slices.Contains(Collections(), name)
}

// Record is one entry of a collection. Values keep their JSON types; numbers
// decode as json.Number.
type Record map[string]any

// ID returns the record's identifier, or "" if it has none.
func (r Record) ID() string {
	id, _ := r[KeyID].(string)
	return id
}

func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Repository performs keyed CRUD over collections in a store.
type Repository struct {
	store  *store.Store
	locks  keylock.Locker
	logger *log.Logger
	now    func() time.Time
	newID  func() string
}

// NewRepository creates a Repository over a store.
func NewRepository(s *store.Store, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Nop()
	}
	return &Repository{
		store:  s,
		logger: logger.WithComponent(log.ComponentEntity),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// List returns every record of a collection in stored order. A missing or
// unreadable collection yields an empty list; the failure is logged.
func (r *Repository) List(collection string) []Record {
	records, err := r.load(collection)
	if err != nil {
		r.logger.Warn("collection read failed",
			log.FieldDocument, collection,
			log.FieldOperation, log.OpRead,
			log.FieldError, err)
		return []Record{}
	}
	return records
}

// Get returns the record with the given id.
func (r *Repository) Get(collection, id string) (Record, error) {
	records, err := r.load(collection)
	if err != nil {
		return nil, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return nil, fmt.Errorf("getting %s %s: %w", collection, id, ErrNotFound)
	}
	return records[i], nil
}

// Append adds a record at the end of a collection, assigning a fresh id and
// timestamps. Caller-supplied values for those keys are replaced.
func (r *Repository) Append(collection string, record Record) (Record, error) {
	if !IsCollection(collection) {
		return nil, fmt.Errorf("appending to %s: %w", collection, ErrUnknownCollection)
	}
	unlock := r.locks.Lock(collection)
	defer unlock()

	records, err := r.loadForWrite(collection)
	if err != nil {
		return nil, err
	}

	ts := r.timestamp()
	rec := record.clone()
	rec[KeyID] = r.newID()
	rec[KeyCreatedAt] = ts
	rec[KeyUpdatedAt] = ts
	records = append(records, rec)

	if err := r.save(collection, records); err != nil {
		return nil, err
	}
	r.logger.Info("record appended", log.FieldDocument, collection, log.FieldOperation, log.OpAppend)
	return rec, nil
}

// Update merges partial over the record with the given id and refreshes its
// updatedAt. The id and createdAt cannot be changed.
func (r *Repository) Update(collection, id string, partial Record) (Record, error) {
	if !IsCollection(collection) {
		return nil, fmt.Errorf("updating %s: %w", collection, ErrUnknownCollection)
	}
	unlock := r.locks.Lock(collection)
	defer unlock()

	records, err := r.loadForWrite(collection)
	if err != nil {
		return nil, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return nil, fmt.Errorf("updating %s %s: %w", collection, id, ErrNotFound)
	}

	rec := records[i].clone()
	for k, v := range partial {
		if k == KeyID || k == KeyCreatedAt || k == KeyUpdatedAt {
			continue
		}
		rec[k] = v
	}
	rec[KeyUpdatedAt] = r.timestamp()
	records[i] = rec

	if err := r.save(collection, records); err != nil {
		return nil, err
	}
	r.logger.Info("record updated", log.FieldDocument, collection, log.FieldOperation, log.OpUpdate)
	return rec, nil
}

// Remove deletes every record whose id is in ids and returns how many were removed.
func (r *Repository) Remove(collection string, ids ...string) (int, error) {
	if !IsCollection(collection) {
		return 0, fmt.Errorf("removing from %s: %w", collection, ErrUnknownCollection)
	}
	unlock := r.locks.Lock(collection)
	defer unlock()

	records, err := r.loadForWrite(collection)
	if err != nil {
		return 0, err
	}
	kept := slices.DeleteFunc(records, func(rec Record) bool {
		return slices.Contains(ids, rec.ID())
	})
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := r.save(collection, kept); err != nil {
		return 0, err
	}
	r.logger.Info("records removed",
		log.FieldDocument, collection,
		log.FieldOperation, log.OpRemove,
		log.FieldCount, removed)
	return removed, nil
}

func (r *Repository) load(collection string) ([]Record, error) {
	if !IsCollection(collection) {
		return nil, fmt.Errorf("reading %s: %w", collection, ErrUnknownCollection)
	}
	data, err := r.store.ReadRaw(collection)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", collection, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// loadForWrite treats a missing collection as empty but refuses to overwrite
// content it cannot parse.
func (r *Repository) loadForWrite(collection string) ([]Record, error) {
	records, err := r.load(collection)
	if errors.Is(err, store.ErrNotFound) {
		return []Record{}, nil
	}
	return records, err
}

func (r *Repository) save(collection string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", collection, err)
	}
	return r.store.WriteRaw(collection, append(data, '\n'))
}

func (r *Repository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

func indexOf(records []Record, id string) int {
	return slices.IndexFunc(records, func(rec Record) bool { return rec.ID() == id })
}
