package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/xsdiff/core/config"
)

// Options holds the parsed arguments and the merged configuration.
type Options struct {
	First     string
	Second    string
	ReportDir string
	Config    config.Config
}

// RunFunc is the handler for the root command.
// It is injected by the wiring layer (cmd/xsdiff/main.go).
type RunFunc func(ctx context.Context, opts Options) error

// UsageError reports a wrong number of positional arguments.
type UsageError struct {
	Got int
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("expected 2 or 3 arguments, got %d", e.Got)
}

// NewRootCmd creates the top-level xsdiff command.
func NewRootCmd(version string, runFunc RunFunc) *cobra.Command {
	var (
		formats   []string
		workers   int
		keepGoing bool
		profile   string
		envFile   string
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "xsdiff <folder1|file1> <folder2|file2> [report-output-folder]",
		Short: "Compare complex types between two XML Schema versions",
		Long: "xsdiff compares the complex types of two XSD files, or of every file listed in\n" +
			"schema.lst across two folders, and writes HTML and CSV difference reports.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 || len(args) > 3 {
				return &UsageError{Got: len(args)}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("format") {
				cfg.Formats = config.SplitList(strings.Join(formats, ","))
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if flags.Changed("keep-going") {
				cfg.KeepGoing = keepGoing
			}
			if flags.Changed("profile") {
				cfg.Profile = profile
			}
			if flags.Changed("log-level") {
				level, err := config.ParseLevel(logLevel)
				if err != nil {
					return fmt.Errorf("--log-level: %w", err)
				}
				cfg.LogLevel = level
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			opts := Options{First: args[0], Second: args[1], Config: cfg}
			if len(args) == 3 {
				opts.ReportDir = args[2]
			}
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Version = version

	cmd.Flags().StringSliceVar(&formats, "format", nil, "Report formats to write: html, csv (default html,csv)")
	cmd.Flags().IntVar(&workers, "workers", 1, "Number of file pairs compared at once")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Continue with the remaining listed files when one fails")
	cmd.Flags().StringVar(&profile, "profile", "full", "Analyzer profile: full or basic")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load XSDIFF_* settings from this file (default .env when present)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	return cmd
}
