package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"keyload/internal/config"
	"keyload/internal/engine"
)

var deleteCmd = &cobra.Command{
	Use:   "delete KEY...",
	Short: "Delete keys from a writable source",
	Long: `Delete one or more keys from a writable source and drop them from the cache.

Exit codes:
	0 = every key deleted
	2 = partial failure (some keys failed to delete)
	3 = fatal error (read-only source; nothing was deleted)

Examples:
  keyload delete --source env --path APP_ PORT HOST
`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runDelete(cmd, cfg, configFile, cmd.OutOrStdout(), cmd.ErrOrStderr(), args))
	},
}

func runDelete(cmd *cobra.Command, cfg *config.Config, configPath string, stdout, stderr io.Writer, keys []string) int {
	return runOperation(cmd, cfg, configPath, stdout, stderr, keys, func(ctx context.Context, eng *engine.Engine, cfg *config.Config) int {
		return eng.Delete(ctx, cfg, keys)
	})
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	bindSourceFlags(deleteCmd, cfg, &configFile)
	bindOutputFlags(deleteCmd, cfg)
	bindRuntimeFlags(deleteCmd, cfg)
}
