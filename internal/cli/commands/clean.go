package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/logging"
	"github.com/JonMunkholm/csvclean/internal/sink"
)

// CleanOptions holds options for the clean command that are not
// configuration.
type CleanOptions struct {
	JSONOutput bool
	Quiet      bool
}

// NewCleanCommand creates the clean command.
func NewCleanCommand() *cobra.Command {
	opts := &CleanOptions{}

	cmd := &cobra.Command{
		Use:   "clean [input]",
		Short: "Clean a CSV file",
		Long: `Run the cleaning pipeline on a CSV file:

  1. drop columns with too few values (--threshold)
  2. drop rows with any missing value
  3. drop duplicate rows
  4. convert columns whose values are all numeric
  5. fill missing values (--method)
  6. lowercase column names and replace spaces with underscores

The cleaned file goes to --output, or stdout when no output is set.
Enabled sinks (--db, --http) then receive the cleaned rows.`,
		Example: `  # Clean a file with defaults
  csvclean clean data.csv -o clean.csv

  # Keep only fully populated columns and fill by median
  csvclean clean -i data.csv -o clean.csv --threshold 1 --method median

  # Also insert rows into the configured database
  csvclean clean data.csv -o clean.csv --db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, args, opts)
		},
	}

	cmd.Flags().StringP("input", "i", "", "Input CSV file")
	cmd.Flags().StringP("output", "o", "", "Output CSV file (default: stdout)")
	cmd.Flags().Float64("threshold", core.DefaultThreshold, "Minimum share of present values to keep a column (0-1)")
	cmd.Flags().String("method", string(core.FillMean), "Fill method (mean|median|mode)")
	cmd.Flags().Bool("db", false, "Write cleaned rows to the configured database")
	cmd.Flags().Bool("http", false, "Post cleaned rows to the configured HTTP endpoint")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Print the run report as JSON")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Do not print the run report")

	_ = cmd.RegisterFlagCompletionFunc("method", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"mean", "median", "mode"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// cleanSummary is the --json form of a run.
type cleanSummary struct {
	Report *core.Report   `json:"report"`
	Output string         `json:"output"`
	Sinks  []*sink.Result `json:"sinks,omitempty"`
}

func runClean(cmd *cobra.Command, args []string, opts *CleanOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	input := cfg.Input.Path
	if len(args) == 1 {
		input = args[0]
	}
	if input == "" {
		return errors.New("no input file: pass a path or --input")
	}

	method, err := core.ParseFillMethod(cfg.Clean.Method)
	if err != nil {
		return err
	}
	cleanOpts := core.Options{Threshold: cfg.Clean.Threshold, Method: method}
	// Fail on bad options before touching the file.
	if err := cleanOpts.Validate(); err != nil {
		return err
	}

	t, err := core.Load(input)
	if err != nil {
		return err
	}
	logger.Debug("input loaded", "path", input, "rows", t.NumRows(), "cols", t.NumCols())

	report, err := core.Clean(ctx, t, cleanOpts)
	if err != nil {
		return err
	}

	// With the data on stdout, the report moves to stderr.
	out := cfg.Output.Path
	reportW := cmd.OutOrStdout()
	if out == "" || out == "-" {
		if err := t.Write(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		out = "-"
		reportW = cmd.ErrOrStderr()
	} else if err := t.Export(out); err != nil {
		return err
	}
	logger.Info("output written", "path", out, "rows", t.NumRows(), "cols", t.NumCols())

	results, sinkErr := writeSinks(cmd, cfg, t)

	if !opts.Quiet {
		if opts.JSONOutput {
			if err := renderJSON(reportW, cleanSummary{Report: report, Output: out, Sinks: results}); err != nil {
				return err
			}
		} else {
			renderReport(reportW, report)
			renderSinkResults(reportW, results)
		}
	}

	if sinkErr != nil {
		logger.Error("sink errors", "error", sinkErr)
		if cfg.Sink.FailOnError {
			return sinkErr
		}
	}
	return nil
}

// writeSinks opens every enabled sink and writes t to each.
func writeSinks(cmd *cobra.Command, cfg *config.Config, t *core.Table) ([]*sink.Result, error) {
	ctx := cmd.Context()

	sinks, err := sink.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(sinks) == 0 {
		return nil, nil
	}
	defer func() {
		if err := sink.CloseAll(sinks); err != nil {
			logging.FromContext(ctx).Warn("close sinks", "error", err)
		}
	}()

	return sink.WriteAll(ctx, sinks, t)
}
