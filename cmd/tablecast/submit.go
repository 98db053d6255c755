package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tablecast/internal/convert"
	"tablecast/internal/kobo"
	"tablecast/internal/mapping"
)

type submitOptions struct {
	convertOptions

	server      string
	kcServer    string
	kfServer    string
	token       string
	dryRun      bool
	stopOnError bool
}

func newSubmitCmd() *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Convert an export and upload the submissions to a server",
		Long: `submit runs the same pipeline as convert and pushes each rendered
document to the data-collection endpoint. Without --mapping it fetches
the form definition from the management API and derives the mapping
on the fly, which requires --token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSubmit(cmd.Context(), opts)
		},
	}

	addConvertFlags(cmd, &opts.convertOptions)
	cmd.Flags().StringVar(&opts.output, "output", "", "also write the rendered XML files to this directory")

	cmd.Flags().StringVar(&opts.server, "server", kobo.DefaultKCServer, "server URL when kc and kf are not split")
	cmd.Flags().StringVar(&opts.kcServer, "kc-server", "", "data-collection server URL, defaults to --server")
	cmd.Flags().StringVar(&opts.kfServer, "kf-server", "", "management API URL, derived from the kc URL by default")
	cmd.Flags().StringVar(&opts.token, "token", "", "API token for the server")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "convert and report without uploading")
	cmd.Flags().BoolVar(&opts.stopOnError, "stop-on-error", false, "stop at the first failed upload")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("form-id")

	return cmd
}

func runSubmit(ctx context.Context, opts submitOptions) error {
	kcServer := opts.kcServer
	if kcServer == "" {
		kcServer = opts.server
	}

	client := kobo.NewClient(kcServer, opts.kfServer, opts.token, logger)

	spec, err := resolveSpec(ctx, client, &opts)
	if err != nil {
		return err
	}

	asm, err := opts.buildAssembler(spec)
	if err != nil {
		return err
	}

	var sink convert.Sink
	if opts.output != "" {
		sink, err = convert.NewDirSink(opts.output)
		if err != nil {
			return err
		}
	}

	summary, err := runPipeline(ctx, asm, sink, opts.record)
	if err != nil {
		return err
	}

	logger.Info().
		Int("converted", summary.Converted()).
		Int("failed", summary.Failed()).
		Msg("conversion finished")

	if opts.dryRun {
		logger.Info().Msg("dry run, skipping upload")

		if failed := summary.Failed(); failed > 0 {
			return fmt.Errorf("%d of %d records failed to convert", failed, len(summary.Results))
		}

		return nil
	}

	if opts.token == "" {
		return errors.New("--token is required to upload submissions")
	}

	subs := make([]kobo.Submission, 0, summary.Converted())
	for _, r := range summary.Results {
		if r.Err != nil {
			continue
		}

		subs = append(subs, kobo.Submission{ID: r.ID, Doc: r.XML})
	}

	outcomes := client.SubmitAll(ctx, subs, opts.stopOnError)

	accepted := 0
	for _, o := range outcomes {
		if !o.Failed() {
			accepted++
		}
	}

	logger.Info().
		Int("accepted", accepted).
		Int("attempted", len(outcomes)).
		Int("prepared", len(subs)).
		Msg("upload finished")

	rejected := len(outcomes) - accepted
	if rejected > 0 || summary.Failed() > 0 {
		return fmt.Errorf("%d conversion failures, %d upload failures", summary.Failed(), rejected)
	}

	return nil
}

// resolveSpec loads the mapping file when one is given, otherwise it
// fetches the form definition and derives the mapping from it. A
// fetched version id fills in --version-id when that flag is unset.
func resolveSpec(ctx context.Context, client *kobo.Client, opts *submitOptions) (*mapping.Spec, error) {
	if opts.mappingPath != "" {
		return loadSpec(opts.mappingPath, logger)
	}

	if opts.token == "" {
		return nil, errors.New("either --mapping or --token is required to derive the mapping")
	}

	asset, err := client.FetchAsset(ctx, opts.formID)
	if err != nil {
		return nil, err
	}

	spec, err := asset.Content.MappingSpec()
	if err != nil {
		return nil, err
	}

	logger.Info().Str("version_id", asset.VersionID).Msg("derived mapping from the form definition")

	if opts.versionID == "" {
		opts.versionID = asset.VersionID
	}

	return spec, nil
}

// runPipeline converts a single record or the whole table set and
// returns a summary either way.
func runPipeline(ctx context.Context, asm *convert.Assembler, sink convert.Sink, record string) (*convert.Summary, error) {
	if record == "" {
		return convert.NewBatch(asm, sink, logger).Run(ctx)
	}

	doc, err := asm.Convert(record)
	if err != nil {
		return nil, err
	}

	if sink != nil {
		if err := sink.Put(record, doc); err != nil {
			return nil, err
		}
	}

	return &convert.Summary{Results: []convert.Result{{ID: record, XML: doc}}}, nil
}
