package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/planner/internal/entity"
)

func newEntityCommand(opts *globalOptions) *cobra.Command {
	entityCmd := &cobra.Command{
		Use:   "entity",
		Short: "Manage record collections (" + strings.Join(entity.Collections(), ", ") + ")",
	}
	entityCmd.AddCommand(
		newEntityListCommand(opts),
		newEntityAddCommand(opts),
		newEntityUpdateCommand(opts),
		newEntityRemoveCommand(opts),
	)
	return entityCmd
}

func newEntityListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <collection>",
		Short: "Print every record of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !entity.IsCollection(args[0]) {
				return fmt.Errorf("%w: %s", entity.ErrUnknownCollection, args[0])
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd, a.Entities.List(args[0]))
		},
	}
}

func newEntityAddCommand(opts *globalOptions) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "add <collection>",
		Short: "Append a record to a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(data)
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			created, err := a.Entities.Append(args[0], rec)
			details := ""
			if err == nil {
				details = "id " + created.ID()
			}
			if err := record(cmd, a, "append", args[0], details, err); err != nil {
				return err
			}
			return printJSON(cmd, created)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "record as a JSON object (required)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func newEntityUpdateCommand(opts *globalOptions) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "update <collection> <id>",
		Short: "Merge fields into a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			partial, err := parseRecord(data)
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			updated, err := a.Entities.Update(args[0], args[1], partial)
			if err := record(cmd, a, "update", args[0], "id "+args[1], err); err != nil {
				return err
			}
			return printJSON(cmd, updated)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "fields as a JSON object (required)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func newEntityRemoveCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <collection> <id>...",
		Short: "Remove records by id",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			n, err := a.Entities.Remove(args[0], args[1:]...)
			if err := record(cmd, a, "remove", args[0], fmt.Sprintf("%d removed", n), err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s) from %s\n", n, args[0])
			return nil
		},
	}
}

func parseRecord(data string) (entity.Record, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var rec entity.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("parsing --data: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("parsing --data: expected a JSON object")
	}
	return rec, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}
