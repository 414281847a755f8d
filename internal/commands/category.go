package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/planner/internal/app"
	"github.com/cleared-dev/planner/internal/backup"
	"github.com/cleared-dev/planner/internal/category"
)

func newCategoriesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the category documents and their fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range category.All() {
				fields := slices.Clone(d.Fields)
				if d.Composite {
					fields = append(fields, category.KeyMktComponents, category.KeyGrowth)
				}
				marker := ""
				if a.Plan.HasBackup(d.Name) {
					marker = " [backup]"
				}
				fmt.Fprintf(out, "%-18s %s%s\n", d.Name, strings.Join(fields, ", "), marker)
			}
			return nil
		},
	}
}

func newGetCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <category>",
		Short: "Print a category document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			doc := a.Plan.Get(args[0])
			if doc == nil {
				return fmt.Errorf("category %s is unavailable", args[0])
			}
			data, err := category.Encode(doc)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newUpdateCommand(opts *globalOptions) *cobra.Command {
	var file string
	var sets []string

	cmd := &cobra.Command{
		Use:   "update <category>",
		Short: "Merge a partial document into a category",
		Long: "Merge a partial document into a category. Fields present in the input replace\n" +
			"the stored field in full; the previous content is backed up first.",
		Example: "  planner update mkt --set previsto=[100,0,0]\n  planner update projection --file patch.json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := patchInput(cmd.InOrStdin(), file, sets)
			if err != nil {
				return err
			}
			patch, err := category.ParsePatch(data)
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				return errors.New("nothing to update")
			}

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			name := args[0]
			doc, err := a.Plan.Update(name, patch)
			if err := record(cmd, a, "update", name, "fields: "+strings.Join(patchFields(patch), ", "), err); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s at %s\n", name, doc.UpdatedAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `JSON patch file ("-" reads stdin)`)
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=<json> assignment, repeatable")
	cmd.MarkFlagsMutuallyExclusive("file", "set")
	cmd.MarkFlagsOneRequired("file", "set")

	return cmd
}

// patchInput returns the patch as a JSON object, read from a file or built from
// field=value assignments.
func patchInput(stdin io.Reader, file string, sets []string) ([]byte, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading patch: %w", err)
		}
		return data, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading patch: %w", err)
		}
		return data, nil
	}

	fields := make(map[string]json.RawMessage, len(sets))
	for _, set := range sets {
		key, value, ok := strings.Cut(set, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: expected field=<json>", set)
		}
		if !json.Valid([]byte(value)) {
			return nil, fmt.Errorf("invalid --set %q: value is not JSON", set)
		}
		fields[key] = json.RawMessage(value)
	}
	return json.Marshal(fields)
}

func patchFields(p category.Patch) []string {
	var fields []string
	for name := range p.Series {
		fields = append(fields, name)
	}
	if p.MktComponents != nil {
		fields = append(fields, category.KeyMktComponents)
	}
	if p.Growth != nil {
		fields = append(fields, category.KeyGrowth)
	}
	slices.Sort(fields)
	return fields
}

func newSyncCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Recompute the projection from the forecast of its source categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			_, report, err := a.Projection.SyncDetailed()
			details := fmt.Sprintf("applied %d, skipped %d", len(report.Applied), len(report.Skipped))
			if err := record(cmd, a, "sync", category.Projection, details, err); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Synchronized projection from %d sources\n", len(report.Applied))
			for _, name := range report.Skipped {
				fmt.Fprintf(out, "  skipped %s (unavailable)\n", name)
			}
			return nil
		},
	}
}

func newBackupCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <category>",
		Short: "Snapshot a category into its backup slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			res, err := a.Plan.Backup(args[0])
			return reportResult(cmd, a, "backup", args[0], res, err)
		},
	}
}

func newRestoreCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <category>",
		Short: "Replace a category with its last backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			res, err := a.Plan.Restore(args[0])
			return reportResult(cmd, a, "restore", args[0], res, err)
		},
	}
}

// reportResult prints a structured backup result. Unsuccessful results fail the command.
func reportResult(cmd *cobra.Command, a *app.App, operation, target string, res backup.Result, err error) error {
	if err == nil && !res.Success {
		err = errors.New(res.Message)
	}
	if err := record(cmd, a, operation, target, string(res.Status), err); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	return nil
}

func newClearCommand(opts *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Reset every category to its default shape",
		Long:  "Reset every category to its default shape. Backups are left untouched and are\nnot refreshed, so the reset cannot be undone with restore.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reset every category without --yes")
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			err = a.Plan.ClearAll()
			if err := record(cmd, a, "clear", "categories", fmt.Sprintf("%d categories reset", len(category.Names())), err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d categories\n", len(category.Names()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")

	return cmd
}
