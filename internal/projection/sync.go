package projection

import (
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cleared-dev/planner/internal/backup"
	"github.com/cleared-dev/planner/internal/category"
	"github.com/cleared-dev/planner/internal/log"
	"github.com/cleared-dev/planner/internal/plan"
)

// Source maps a source category onto the projection field it feeds.
type Source struct {
	Category string
	Field    string
}

// Sources lists the nine categories whose previsto series are copied into the projection.
var Sources = []Source{
	{category.FixedExpenses, category.FieldDespesasFixas},
	{category.VariableExpenses, category.FieldDespesasVariaveis},
	{category.Investments, category.FieldInvestimentos},
	{category.Mkt, category.FieldMkt},
	{category.FaturamentoReurb, category.FieldFaturamentoReurb},
	{category.FaturamentoGeo, category.FieldFaturamentoGeo},
	{category.FaturamentoPlan, category.FieldFaturamentoPlan},
	{category.FaturamentoReg, category.FieldFaturamentoReg},
	{category.FaturamentoNn, category.FieldFaturamentoNn},
}

// Categories is the part of the category repository the synchronizer needs.
type Categories interface {
	Get(name string) *category.Document
	Default(name string) (*category.Document, error)
	Lock(name string) (unlock func())
	Stamp(prev time.Time) time.Time
	Save(doc *category.Document) error
	Version() uint64
}

// Snapshotter backs up a document before it is overwritten. Callers hold the
// category lock.
type Snapshotter interface {
	BackupBeforeWrite(name string) (backup.Result, error)
}

// Report lists which sources were applied to the projection and which were skipped.
type Report struct {
	Applied []string
	Skipped []string
}

type outcome struct {
	doc    *category.Document
	report Report
}

// Synchronizer rewrites the projection's nine derived series. Concurrent calls
// share a recomputation only when no category write completed in between, so
// every result reflects the writes that finished before the call.
type Synchronizer struct {
	categories Categories
	snapshots  Snapshotter
	logger     *log.Logger
	group      singleflight.Group
}

// NewSynchronizer creates a Synchronizer over a category repository.
func NewSynchronizer(categories Categories, snapshots Snapshotter, logger *log.Logger) *Synchronizer {
	if logger == nil {
		logger = log.Nop()
	}
	return &Synchronizer{
		categories: categories,
		snapshots:  snapshots,
		logger:     logger.WithComponent(log.ComponentProjection),
	}
}

// Sync copies each source's previsto series into the projection and persists it.
func (s *Synchronizer) Sync() (*category.Document, error) {
	doc, _, err := s.SyncDetailed()
	return doc, err
}

// SyncDetailed is Sync, also reporting which sources contributed.
func (s *Synchronizer) SyncDetailed() (*category.Document, Report, error) {
	key := strconv.FormatUint(s.categories.Version(), 10)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.sync()
	})
	if err != nil {
		return nil, Report{}, err
	}
	out := v.(*outcome)
	return out.doc.Clone(), out.report, nil
}

func (s *Synchronizer) sync() (*outcome, error) {
	unlock := s.categories.Lock(category.Projection)
	defer unlock()

	doc := s.categories.Get(category.Projection)
	if doc == nil {
		s.logger.Warn("projection unreadable, rebuilding from default shape", log.FieldOperation, log.OpSync)
		// Keep the unreadable content recoverable through restore.
		if _, err := s.snapshots.BackupBeforeWrite(category.Projection); err != nil {
			return nil, &plan.WriteError{Op: log.OpSync, Category: category.Projection, Err: err}
		}
		var err error
		doc, err = s.categories.Default(category.Projection)
		if err != nil {
			return nil, &plan.WriteError{Op: log.OpSync, Category: category.Projection, Err: err}
		}
	}

	var report Report
	for _, src := range Sources {
		source := s.categories.Get(src.Category)
		if source == nil {
			s.logger.Warn("source unavailable, keeping current projection value",
				log.FieldOperation, log.OpSync,
				log.FieldCategory, src.Category)
			report.Skipped = append(report.Skipped, src.Category)
			continue
		}
		doc.Series[src.Field] = source.Series[category.FieldPrevisto]
		report.Applied = append(report.Applied, src.Category)
	}

	doc.UpdatedAt = s.categories.Stamp(doc.UpdatedAt)
	if err := s.categories.Save(doc); err != nil {
		return nil, &plan.WriteError{Op: log.OpSync, Category: category.Projection, Err: err}
	}

	s.logger.Info("projection synchronized",
		log.FieldOperation, log.OpSync,
		log.FieldCount, len(report.Applied))
	return &outcome{doc: doc, report: report}, nil
}
