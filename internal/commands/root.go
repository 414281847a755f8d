package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/planner/internal/app"
	"github.com/cleared-dev/planner/internal/buildinfo"
	"github.com/cleared-dev/planner/internal/config"
	"github.com/cleared-dev/planner/internal/log"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	root       string
	appOpts    []app.Option
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&globalOptions{})
}

func newRootCommand(opts *globalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "planner",
		Short:   "Twelve-month budget projections stored as JSON documents",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.root, "root", "", "storage directory (overrides configuration)")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newCategoriesCommand(opts),
		newGetCommand(opts),
		newUpdateCommand(opts),
		newSyncCommand(opts),
		newBackupCommand(opts),
		newRestoreCommand(opts),
		newClearCommand(opts),
		newEntityCommand(opts),
		newLogCommand(opts),
	)

	return rootCmd
}

// loadConfig resolves the configuration and applies --root.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.root != "" {
		cfg.Storage.Root = o.root
	}
	return cfg, nil
}

// open builds the application handle, logging to the command's stderr.
func (o *globalOptions) open(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return o.openWith(cmd, cfg)
}

func (o *globalOptions) openWith(cmd *cobra.Command, cfg *config.Config) (*app.App, error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logCfg := log.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Log.Format
	logCfg.Output = cmd.ErrOrStderr()
	logger := log.New(logCfg)
	log.SetDefault(logger)

	a, err := app.Open(cfg, logger, o.appOpts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// record logs a mutating operation, reporting bookkeeping failures without
// masking the operation's own result.
func record(cmd *cobra.Command, a *app.App, operation, target, details string, opErr error) error {
	if err := a.Record(operation, target, details, opErr); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	return opErr
}
