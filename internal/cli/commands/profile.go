package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/core"
)

// NewProfileCommand creates the profile command.
func NewProfileCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "profile [input]",
		Short: "Show row, column and missing-value counts",
		Long: `Load a CSV file without cleaning it and print each column's inferred
kind with its present and missing value counts.`,
		Example: `  csvclean profile data.csv
  csvclean profile -i data.csv --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())

			input := cfg.Input.Path
			if len(args) == 1 {
				input = args[0]
			}
			if input == "" {
				return errors.New("no input file: pass a path or --input")
			}

			t, err := core.Load(input)
			if err != nil {
				return err
			}

			p := t.Profile()
			if jsonOutput {
				return renderJSON(cmd.OutOrStdout(), p)
			}
			renderProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "Input CSV file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the profile as JSON")

	return cmd
}
