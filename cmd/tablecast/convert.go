package main

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tablecast/internal/choice"
	"tablecast/internal/convert"
	"tablecast/internal/mapping"
	"tablecast/internal/tableset"
)

// convertOptions holds the flags shared by every command that runs the
// conversion pipeline.
type convertOptions struct {
	input       string
	mappingPath string
	formID      string
	formhubUUID string
	versionID   string
	formVersion string
	output      string
	record      string
	mainTable   string
	useLabels   bool
	choiceMode  string
	concurrency int
}

func newConvertCmd() *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a CSV export directory into XML submission files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd.Context(), opts)
		},
	}

	addConvertFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.output, "output", "xml_output", "directory for the rendered XML files")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("mapping")
	_ = cmd.MarkFlagRequired("form-id")

	return cmd
}

// addConvertFlags registers the pipeline flags common to convert and
// submit. The output flag is registered per command since its default
// differs.
func addConvertFlags(cmd *cobra.Command, opts *convertOptions) {
	cmd.Flags().StringVar(&opts.input, "input", "", "directory holding the CSV tables")
	cmd.Flags().StringVar(&opts.mappingPath, "mapping", "", "mapping file with field paths and choice lists")
	cmd.Flags().StringVar(&opts.formID, "form-id", "", "form identifier stamped on the document root")
	cmd.Flags().StringVar(&opts.formhubUUID, "formhub-uuid", "", "formhub uuid block value, omitted when empty")
	cmd.Flags().StringVar(&opts.versionID, "version-id", "", "__version__ value for the documents")
	cmd.Flags().StringVar(&opts.formVersion, "form-version", "", "version attribute on the document root")
	cmd.Flags().StringVar(&opts.record, "record", "", "convert only this record identifier")
	cmd.Flags().StringVar(&opts.mainTable, "main-table", "data", "name of the main table")
	cmd.Flags().BoolVar(&opts.useLabels, "use-labels", false, "translate cell values through the choice lists")
	cmd.Flags().StringVar(&opts.choiceMode, "choice-mode", "", "unlisted choice handling: lenient, warn or reject")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "parallel conversion workers, 0 for one per CPU")
}

// loadSpec reads a mapping file and logs any validation warnings.
func loadSpec(path string, log zerolog.Logger) (*mapping.Spec, error) {
	spec, err := mapping.LoadFile(path)
	if err != nil {
		return nil, err
	}

	for _, w := range mapping.Validate(spec).Warnings {
		log.Warn().Str("field", w.Field).Msg(w.Message)
	}

	return spec, nil
}

// buildAssembler loads the tables and wires the conversion pipeline.
func (o convertOptions) buildAssembler(spec *mapping.Spec) (*convert.Assembler, error) {
	mode, err := choice.ParseMode(o.choiceMode)
	if err != nil {
		return nil, err
	}

	tables, err := tableset.LoadDir(o.input, o.mainTable)
	if err != nil {
		return nil, err
	}

	cfg := convert.Config{
		FormID:        o.formID,
		FormhubUUID:   o.formhubUUID,
		FormVersionID: o.versionID,
		FormVersion:   o.formVersion,
		UseLabels:     o.useLabels,
		ChoiceMode:    mode,
		Concurrency:   o.concurrency,
	}

	return convert.NewAssembler(spec, tables, cfg, logger)
}

func runConvert(ctx context.Context, opts convertOptions) error {
	spec, err := loadSpec(opts.mappingPath, logger)
	if err != nil {
		return err
	}

	asm, err := opts.buildAssembler(spec)
	if err != nil {
		return err
	}

	sink, err := convert.NewDirSink(opts.output)
	if err != nil {
		return err
	}

	if opts.record != "" {
		doc, err := asm.Convert(opts.record)
		if err != nil {
			return err
		}

		if err := sink.Put(opts.record, doc); err != nil {
			return err
		}

		logger.Info().Str("path", sink.Path(opts.record)).Msg("wrote submission")

		return nil
	}

	summary, err := convert.NewBatch(asm, sink, logger).Run(ctx)
	if err != nil {
		return err
	}

	if failed := summary.Failed(); failed > 0 {
		if logger.GetLevel() <= zerolog.DebugLevel {
			logger.Debug().Msg(spew.Sdump(summary.Diagnostics()))
		}

		return fmt.Errorf("%d of %d records failed to convert", failed, len(summary.Results))
	}

	return nil
}
