package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"keyload/internal/config"
	"keyload/internal/engine"
)

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Load a single key from a source",
	Long: `Load a single key through the cache and print its value.

The key is loaded with the source's per-key path, even for sources that also
answer in bulk (for github this is the REST API rather than GraphQL).

Exit codes:
	0 = the key loaded
	1 = the key was not found at the source
	2 = the load failed
	3 = fatal error (the load did not run)

Examples:
  keyload get octo/hello
  keyload get --source json --path config.json server.port
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runGet(cmd, cfg, configFile, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0]))
	},
}

func runGet(cmd *cobra.Command, cfg *config.Config, configPath string, stdout, stderr io.Writer, key string) int {
	return runOperation(cmd, cfg, configPath, stdout, stderr, []string{key}, func(ctx context.Context, eng *engine.Engine, cfg *config.Config) int {
		cfg.Output.ShowValues = true
		return eng.Get(ctx, cfg, key)
	})
}

func init() {
	rootCmd.AddCommand(getCmd)
	bindSourceFlags(getCmd, cfg, &configFile)
	bindOutputFlags(getCmd, cfg)
	bindRuntimeFlags(getCmd, cfg)
}
