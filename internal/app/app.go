package app

import (
	"fmt"
	"time"

	"github.com/cleared-dev/planner/internal/auditlog"
	"github.com/cleared-dev/planner/internal/backup"
	"github.com/cleared-dev/planner/internal/config"
	"github.com/cleared-dev/planner/internal/entity"
	"github.com/cleared-dev/planner/internal/gitops"
	"github.com/cleared-dev/planner/internal/log"
	"github.com/cleared-dev/planner/internal/plan"
	"github.com/cleared-dev/planner/internal/projection"
	"github.com/cleared-dev/planner/internal/seed"
	"github.com/cleared-dev/planner/internal/store"
)

// App holds every component built over one storage directory.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Store      *store.Store
	Backups    *backup.Manager
	Plan       *plan.Service
	Projection *projection.Synchronizer
	Entities   *entity.Repository

	git        *gitops.Repo
	seeded     []string
	now        func() time.Time
	bcryptCost int
}

// Option configures Open.
type Option func(*App)

// WithClock replaces time.Now for seeding, timestamps and the activity log.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithBcryptCost sets the hashing cost for seeded passwords.
func WithBcryptCost(cost int) Option {
	return func(a *App) { a.bcryptCost = cost }
}

// Open prepares the storage directory and seeds every missing document. A
// storage directory that cannot be created is an error.
func Open(cfg *config.Config, logger *log.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = log.Nop()
	}
	a := &App{
		Config: cfg,
		Logger: logger.WithComponent(log.ComponentApp),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.Store = store.New(cfg.Storage.Root, logger)
	seeded, err := a.Store.EnsureDefaults(seed.All(seed.Options{
		Subcategories: cfg.Subcategories,
		Users:         accounts(cfg),
		BcryptCost:    a.bcryptCost,
	}), a.now())
	if err != nil {
		return nil, fmt.Errorf("opening storage %s: %w", cfg.Storage.Root, err)
	}
	a.seeded = seeded

	a.Backups = backup.NewManager(a.Store, logger)
	a.Plan = plan.NewService(a.Store, a.Backups, logger, plan.WithClock(a.now))
	a.Projection = projection.NewSynchronizer(a.Plan, a.Backups, logger)
	a.Entities = entity.NewRepository(a.Store, logger)

	if cfg.Git.AutoCommit {
		a.git = gitops.Open(cfg.Storage.Root, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
		if err := a.git.Init(); err != nil {
			return nil, fmt.Errorf("initializing history: %w", err)
		}
	}

	a.Logger.Debug("storage opened", log.FieldPath, cfg.Storage.Root, log.FieldCount, len(seeded))
	return a, nil
}

func accounts(cfg *config.Config) []seed.Account {
	return seed.DefaultUsers(
		cfg.Users[config.UserAdmin].InitialPassword,
		cfg.Users[config.UserEditor].InitialPassword,
		cfg.Users[config.UserViewer].InitialPassword,
	)
}

// Seeded returns the documents created by Open.
func (a *App) Seeded() []string {
	return a.seeded
}

// Record appends an activity log row for a mutating operation and, when git
// history is enabled, commits the storage directory as "<operation>: <target>".
// opErr marks the row as failed; it is not returned.
func (a *App) Record(operation, target, details string, opErr error) error {
	status := auditlog.StatusOK
	if opErr != nil {
		status = auditlog.StatusFailed
		details = opErr.Error()
	}
	entry := auditlog.Entry{
		Timestamp: a.now(),
		Operation: operation,
		Target:    target,
		Status:    status,
		Details:   details,
	}
	if err := auditlog.Append(a.Store.Root(), entry); err != nil {
		return fmt.Errorf("recording %s: %w", operation, err)
	}

	if a.git == nil {
		return nil
	}
	hash, err := a.git.CommitAll(fmt.Sprintf("%s: %s", operation, target))
	if err != nil {
		return fmt.Errorf("committing %s: %w", operation, err)
	}
	if hash != "" {
		a.Logger.Debug("history committed", log.FieldOperation, operation, "commit", hash)
	}
	return nil
}
