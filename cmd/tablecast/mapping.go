package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tablecast/internal/kobo"
)

const mappingFilePerm = 0o644

type mappingOptions struct {
	contentPath string
	formID      string
	token       string
	kfServer    string
	out         string
}

func newMappingCmd() *cobra.Command {
	var opts mappingOptions

	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Generate a mapping file from a form definition",
		Long: `mapping extracts field paths and choice lists from a form definition
and writes them as a mapping file for convert and submit. The
definition comes from a local JSON file via --content or is fetched
from the management API via --form-id and --token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMapping(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.contentPath, "content", "", "local form definition JSON, bare content or full asset")
	cmd.Flags().StringVar(&opts.formID, "form-id", "", "form to fetch when --content is not given")
	cmd.Flags().StringVar(&opts.token, "token", "", "API token for fetching")
	cmd.Flags().StringVar(&opts.kfServer, "kf-server", "", "management API URL")
	cmd.Flags().StringVar(&opts.out, "out", "question_mapping.json", `output path, "-" for stdout`)

	return cmd
}

func runMapping(ctx context.Context, opts mappingOptions) error {
	content, err := resolveContent(ctx, opts)
	if err != nil {
		return err
	}

	data, err := content.MappingJSON()
	if err != nil {
		return err
	}

	if opts.out == "-" {
		_, err := fmt.Fprintf(os.Stdout, "%s\n", data)
		return err
	}

	if err := os.WriteFile(opts.out, data, mappingFilePerm); err != nil {
		return fmt.Errorf("writing mapping file: %w", err)
	}

	logger.Info().
		Str("path", opts.out).
		Int("fields", len(content.FieldPaths())).
		Msg("wrote mapping file")

	return nil
}

func resolveContent(ctx context.Context, opts mappingOptions) (*kobo.Content, error) {
	if opts.contentPath != "" {
		data, err := os.ReadFile(opts.contentPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read content file %s: %w", opts.contentPath, err)
		}

		return kobo.ParseContent(data)
	}

	if opts.formID == "" || opts.token == "" {
		return nil, errors.New("either --content or --form-id with --token is required")
	}

	client := kobo.NewClient("", opts.kfServer, opts.token, logger)

	asset, err := client.FetchAsset(ctx, opts.formID)
	if err != nil {
		return nil, err
	}

	return asset.Content, nil
}
