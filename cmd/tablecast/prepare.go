package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tablecast/internal/tableset"
)

type prepareOptions struct {
	input  string
	output string
	force  bool
}

func newPrepareCmd() *cobra.Command {
	var opts prepareOptions

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Stamp fresh submission identifiers onto a CSV table",
		Long: `prepare stamps a fresh identifier onto every row of a main table so
an edited export can be re-submitted as new records. The lineage
column is created when missing; fill it with the identifiers being
superseded to link each edit to its original submission.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runPrepare(opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "CSV table to stamp")
	cmd.Flags().StringVar(&opts.output, "output", "", `output CSV, default adds a "_with_uuids" suffix`)
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing identifier column")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runPrepare(opts prepareOptions) error {
	table, err := tableset.ReadTable(opts.input)
	if err != nil {
		return err
	}

	stamped, err := tableset.MintIDs(table, opts.force)
	if err != nil {
		return err
	}

	path := opts.output
	if path == "" {
		path = defaultPrepareOutput(opts.input)
	}

	if err := tableset.WriteTable(stamped, path); err != nil {
		return err
	}

	logger.Info().Str("path", path).Int("rows", stamped.Len()).Msg("wrote stamped table")

	return nil
}

func defaultPrepareOutput(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_with_uuids" + ext
}
