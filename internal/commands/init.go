package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/planner/internal/config"
)

func newInitCommand(opts *globalOptions) *cobra.Command {
	var writeConfig bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the storage directory and seed every default document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts, writeConfig)
		},
	}

	cmd.Flags().BoolVar(&writeConfig, "write-config", false, "write the configuration file if it does not exist")

	return cmd
}

func runInit(cmd *cobra.Command, opts *globalOptions, writeConfig bool) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	if writeConfig {
		if _, err := os.Stat(opts.configPath); errors.Is(err, fs.ErrNotExist) {
			if err := config.Save(opts.configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", opts.configPath)
		}
	}

	a, err := opts.openWith(cmd, cfg)
	if err != nil {
		return err
	}

	seeded := a.Seeded()
	if err := record(cmd, a, "init", "storage", fmt.Sprintf("%d documents created", len(seeded)), nil); err != nil {
		return err
	}

	root, err := filepath.Abs(a.Store.Root())
	if err != nil {
		root = a.Store.Root()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized planner storage at %s (%d documents created)\n", root, len(seeded))
	for _, name := range seeded {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
	return nil
}
