package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tablecast/internal/config"
)

// logger is shared by all subcommands and configured by the root
// command's persistent flags before any RunE fires.
var logger = zerolog.Nop()

type rootOptions struct {
	configPath string
	debug      bool
	logJSON    bool
	quiet      bool
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "tablecast",
		Short: "Turn flat survey exports back into XML submissions",
		Long: `tablecast rebuilds hierarchical XML submissions from the flat CSV
tables a survey platform exports: one main table plus one table per
repeat group, joined by a shared identifier column. The rebuilt
documents can be written to disk or pushed straight to a KoboToolbox
server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger = newLogger(opts.debug, opts.logJSON, opts.quiet)

			if opts.configPath == "" {
				return nil
			}

			file, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			if err := file.Apply(cmd.Flags()); err != nil {
				return err
			}

			logger.Debug().Str("path", opts.configPath).Msg("applied config file")

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "JSON or YAML config file with flag defaults")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "emit JSON log lines instead of console output")
	cmd.PersistentFlags().BoolVar(&opts.quiet, "quiet", false, "only log warnings and errors")

	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newSubmitCmd())
	cmd.AddCommand(newMappingCmd())
	cmd.AddCommand(newPrepareCmd())

	return cmd
}

func newLogger(debug, jsonOut, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.WarnLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if jsonOut {
		out = os.Stderr
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Execute runs the root command until completion or the first
// interrupt signal.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}
