// Package commands implements the CLI commands for flipfusion.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/flipfusion/internal/app"
	"go.trai.ch/flipfusion/internal/build"
)

// CLI represents the command line interface for flipfusion.
type CLI struct {
	app     Application
	logs    LogSettings
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Preload(ctx context.Context, opts app.Options, preload app.PreloadOptions) error
	Serve(ctx context.Context, opts app.Options) error
	Manifest(opts app.Options, asJSON bool) error
	Status(ctx context.Context, opts app.Options) error
	Clean(ctx context.Context, opts app.Options, clean app.CleanOptions) error
}

// LogSettings adjusts the logger from global flags.
type LogSettings interface {
	SetJSON(enable bool)
	SetVerbose(enable bool)
}

// New creates a new CLI instance with the given app.
func New(a Application, logs LogSettings) *CLI {
	rootCmd := &cobra.Command{
		Use:           "flipfusion",
		Short:         "Prefetch and serve the FlipFusion game assets from a local cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Path to flipfusion.yaml (default: discovered from the working directory)")
	flags.String("origin", "", "Origin base URL assets are fetched from")
	flags.String("listen", "", "Address the serve command binds to")
	flags.String("backend", "", "Cache backend: fs or badger")
	flags.StringP("output-mode", "o", "auto", "Output mode: auto, tui, or linear")
	flags.Bool("ci", false, "Use linear output mode (shorthand for --output-mode=linear)")
	flags.Bool("json-logs", false, "Write logs as JSON")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	c := &CLI{
		app:     a,
		logs:    logs,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if c.logs == nil {
			return
		}
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		verbose, _ := cmd.Flags().GetBool("verbose")
		c.logs.SetJSON(jsonLogs)
		c.logs.SetVerbose(verbose)
	}

	rootCmd.AddCommand(c.newPreloadCmd())
	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newManifestCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func options(cmd *cobra.Command) app.Options {
	configFile, _ := cmd.Flags().GetString("config")
	origin, _ := cmd.Flags().GetString("origin")
	listen, _ := cmd.Flags().GetString("listen")
	backend, _ := cmd.Flags().GetString("backend")
	outputMode, _ := cmd.Flags().GetString("output-mode")
	ci, _ := cmd.Flags().GetBool("ci")

	// If --ci is set, override output-mode to "linear"
	if ci {
		outputMode = "linear"
	}

	return app.Options{
		ConfigFile: configFile,
		Origin:     origin,
		Listen:     listen,
		Backend:    backend,
		OutputMode: outputMode,
	}
}
