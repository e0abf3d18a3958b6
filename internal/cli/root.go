package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keyload/internal/config"
	"keyload/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "keyload",
	Short: "Bulk-load keys through a read-through cache and report per-key outcomes",
	Long: `keyload resolves a set of keys against a source of truth (GitHub, a JSON
document, the process environment) through a read-through cache.

Keys fail independently: one bad key never hides the values of the others.
Every requested key is reported exactly once, as LOADED, FAILED or SKIPPED.
Writable sources also accept writes and deletes (WRITTEN, DELETED).

Examples:
	# Show available commands and global flags
	keyload --help

	# Load repository metadata
	keyload load --keys octo/hello,octo/world

	# Load one key
	keyload get octo/hello

	# Write and delete environment variables
	keyload put --source env APP_MODE=prod
	keyload delete --source env APP_MODE

	# List sources
	keyload sources list

	# Print build info
	keyload version`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable debug logging (every GitHub API call and full error details)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
