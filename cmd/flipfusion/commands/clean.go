package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/flipfusion/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the asset cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")
			return c.app.Clean(cmd.Context(), options(cmd), app.CleanOptions{All: all})
		},
	}
	cmd.Flags().BoolP("all", "a", false, "Remove every cache version, not only the current one")
	return cmd
}
