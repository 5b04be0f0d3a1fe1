package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/flipfusion/internal/app"
)

func (c *CLI) newPreloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preload",
		Short: "Fetch every manifest asset into the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			allowDegraded, _ := cmd.Flags().GetBool("allow-degraded")
			return c.app.Preload(cmd.Context(), options(cmd), app.PreloadOptions{
				AllowDegraded: allowDegraded,
			})
		},
	}
	cmd.Flags().Bool("allow-degraded", false, "Exit successfully even when some assets could not be cached")
	return cmd
}
