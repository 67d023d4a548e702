// Package cli implements the hirepulsectl command line tool, which runs the
// velocity engine against local dataset files.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/okian/hirepulse/pkg/logger"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
	jsonLog bool
}

// NewRootCmd builds the hirepulsectl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "hirepulsectl",
		Short: "Analyze recruiting velocity from applicant-tracking exports",
		Long: `hirepulsectl measures how offer acceptance and requisition fill odds
decay with elapsed time, compares fast and slow fills, and prints
actionable insights.

Datasets are JSON or YAML files holding candidates, requisitions,
events and users.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initLogger(cmd.ErrOrStderr(), opts)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVar(&opts.jsonLog, "log-json", false, "Write logs as JSON lines")

	cmd.AddCommand(newAnalyzeCmd(), newValidateCmd())
	return cmd
}

func initLogger(w io.Writer, opts *rootOptions) (err error) {
	err = logger.Init(logger.WithOutput(w), logger.WithJSON(opts.jsonLog))
	if err != nil {
		return err
	}
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger.SetLevel(level)
	return err
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
