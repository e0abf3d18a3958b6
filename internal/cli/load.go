package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"keyload/internal/config"
	"keyload/internal/engine"
	"keyload/internal/logging"
)

var configFile string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a set of keys from a source",
	Long: `Load a set of keys from a source through a read-through cache.

Keys are loaded independently. Sources that support it (github, json) resolve
all keys in bulk; the others are loaded key by key with --concurrency loads in
flight. A key that fails never hides the values of the others.

Configuration:
	Settings may come from a YAML (.yaml, .yml) or TOML (.toml) file given with
	--config. Flags set on the command line override the file.

Authentication (github source):
	1) --token
	2) GITHUB_TOKEN, then GH_TOKEN environment variables
	3) GitHub CLI (gh) authentication via gh auth token

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown report of the run
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line, with a "type" field
	(run.started, key.result, run.finished).

Exit codes:
	0 = every key loaded
	1 = some keys not found at the source, none failed
	2 = partial failure (some keys failed to load)
	3 = fatal error (the load did not run)

Examples:
  # Repository metadata, token from the environment
  export GITHUB_TOKEN="<your_token>"
  keyload load --keys octo/hello,octo/world --show-values

  # Values from a JSON document
  keyload load --source json --path config.json --keys server.port,server.host

  # Stream machine-readable events to stdout
  keyload load --config keyload.yaml --no-console --emit ndjson
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().NFlag() == 0 {
			_ = cmd.Help()
			return
		}
		os.Exit(runLoad(cmd, cfg, configFile, cmd.OutOrStdout(), cmd.ErrOrStderr()))
	},
}

// operation runs one engine operation against a validated config.
type operation func(ctx context.Context, eng *engine.Engine, cfg *config.Config) int

// runLoad executes one load and returns the process exit code.
func runLoad(cmd *cobra.Command, cfg *config.Config, configPath string, stdout, stderr io.Writer) int {
	return runOperation(cmd, cfg, configPath, stdout, stderr, nil, func(ctx context.Context, eng *engine.Engine, cfg *config.Config) int {
		return eng.Run(ctx, cfg)
	})
}

// runOperation merges the config file, validates, sets up logging and runs
// op. Non-nil keys replace any configured keys.
func runOperation(cmd *cobra.Command, cfg *config.Config, configPath string, stdout, stderr io.Writer, keys []string, op operation) int {
	if configPath != "" {
		fileCfg := config.New()
		if err := config.LoadFile(configPath, fileCfg); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 3
		}
		mergeFileConfig(cmd, cfg, fileCfg)
	}
	if keys != nil {
		cfg.Keys = config.Keys{List: keys}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 3
	}

	logger := logging.New(stderr, cfg.Runtime.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng := engine.NewEngine(logger)
	eng.Stdout = stdout
	return op(ctx, eng, cfg)
}

func init() {
	rootCmd.AddCommand(loadCmd)
	bindLoadFlags(loadCmd, cfg, &configFile)
}
