package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"keyload/internal/config"
	"keyload/internal/engine"
	"keyload/internal/flags"
)

var putVerify bool

var putCmd = &cobra.Command{
	Use:   "put KEY=VALUE...",
	Short: "Write keys through the cache to a writable source",
	Long: `Write one or more KEY=VALUE entries to a writable source.

Entries are written independently with --concurrency writes in flight. A key
that fails to write is reported FAILED; the others are reported WRITTEN.
With --verify, every written key is read back from the source.

Only writable sources accept writes (see ` + "`keyload sources list`" + `).

Exit codes:
	0 = every key written
	2 = partial failure (some keys failed to write)
	3 = fatal error (read-only source, bad arguments; nothing was written)

Examples:
  keyload put --source env --path APP_ PORT=8080 HOST=localhost
  keyload put --source env --verify --report put.md MODE=prod
`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runPut(cmd, cfg, configFile, cmd.OutOrStdout(), cmd.ErrOrStderr(), args, putVerify))
	},
}

func runPut(cmd *cobra.Command, cfg *config.Config, configPath string, stdout, stderr io.Writer, args []string, verify bool) int {
	entries, err := parseEntries(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 3
	}
	keys := slices.Sorted(maps.Keys(entries))

	return runOperation(cmd, cfg, configPath, stdout, stderr, keys, func(ctx context.Context, eng *engine.Engine, cfg *config.Config) int {
		return eng.Put(ctx, cfg, entries, verify)
	})
}

// parseEntries parses KEY=VALUE arguments. Values are kept verbatim and may
// contain '='.
func parseEntries(args []string) (map[string]any, error) {
	entries := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid entry %q: expected KEY=VALUE", arg)
		}
		if _, dup := entries[k]; dup {
			return nil, fmt.Errorf("duplicate key %q", k)
		}
		entries[k] = v
	}
	return entries, nil
}

func init() {
	rootCmd.AddCommand(putCmd)
	bindSourceFlags(putCmd, cfg, &configFile)
	bindOutputFlags(putCmd, cfg)
	bindRuntimeFlags(putCmd, cfg)
	putCmd.Flags().BoolVar(&putVerify, flags.FlagVerify, false, "Read every written key back from the source")
}
