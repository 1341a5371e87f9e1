package commands

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/sink"
)

// NewSinksCommand creates the sinks command.
func NewSinksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sinks",
		Short: "List available sinks",
		Long:  `List the sinks cleaned rows can be forwarded to and whether the current configuration enables them.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := config.FromContext(cmd.Context())
			renderSinks(cmd.OutOrStdout(), sink.All(), func(d sink.Definition) bool {
				return d.Enabled(cfg)
			})
		},
	}
}
