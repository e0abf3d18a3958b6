package cli

import (
	"github.com/spf13/cobra"

	"keyload/internal/config"
	"keyload/internal/flags"
)

// mergeFileConfig copies every setting from file into dst unless the
// matching flag was set on the command line.
func mergeFileConfig(cmd *cobra.Command, dst, file *config.Config) {
	set := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if !set(flags.FlagSource) {
		dst.Source.Name = file.Source.Name
	}
	if !set(flags.FlagPath) {
		dst.Source.Path = file.Source.Path
	}
	if !set(flags.FlagBaseURL) {
		dst.Source.BaseURL = file.Source.BaseURL
	}
	if !set(flags.FlagKeys) {
		dst.Keys.List = file.Keys.List
	}
	if !set(flags.FlagKeysFile) {
		dst.Keys.File = file.Keys.File
	}
	if !set(flags.FlagConsoleFormat) {
		dst.Output.ConsoleFormat = file.Output.ConsoleFormat
	}
	if !set(flags.FlagConsoleFilterStatus) {
		dst.Output.ConsoleFilterStatus = file.Output.ConsoleFilterStatus
	}
	if !set(flags.FlagOut) {
		dst.Output.Out = file.Output.Out
	}
	if !set(flags.FlagOutFormat) {
		dst.Output.OutFormat = file.Output.OutFormat
	}
	if !set(flags.FlagEmit) {
		dst.Output.Emit = file.Output.Emit
	}
	if !set(flags.FlagReport) {
		dst.Output.Report = file.Output.Report
	}
	if !set(flags.FlagNoConsole) {
		dst.Output.NoConsole = file.Output.NoConsole
	}
	if !set(flags.FlagShowValues) {
		dst.Output.ShowValues = file.Output.ShowValues
	}
	if !set(flags.FlagConcurrency) {
		dst.Runtime.Concurrency = file.Runtime.Concurrency
	}
	if !set(flags.FlagTimeout) {
		dst.Runtime.Timeout = file.Runtime.Timeout
	}
	if !set(flags.FlagStrict) {
		dst.Runtime.Strict = file.Runtime.Strict
	}
	if !set(flags.FlagVerbose) {
		dst.Runtime.Verbose = dst.Runtime.Verbose || file.Runtime.Verbose
	}
}

// bindLoadFlags binds every flag of the load command. The single-key and
// write commands take their keys as arguments and skip the key flags.
func bindLoadFlags(cmd *cobra.Command, cfg *config.Config, configPath *string) {
	bindSourceFlags(cmd, cfg, configPath)

	fs := cmd.Flags()
	fs.StringSliceVar(&cfg.Keys.List, flags.FlagKeys, nil, "Keys to load (repeatable; comma-separated accepted)")
	fs.StringVar(&cfg.Keys.File, flags.FlagKeysFile, "", "File with one key per line ('#' starts a comment)")

	bindOutputFlags(cmd, cfg)
	bindRuntimeFlags(cmd, cfg)
}

func bindSourceFlags(cmd *cobra.Command, cfg *config.Config, configPath *string) {
	defaults := config.New()
	fs := cmd.Flags()

	fs.StringVar(configPath, flags.FlagConfig, "", "Read settings from a .yaml/.yml or .toml file (flags override it)")

	fs.StringVar(&cfg.Source.Name, flags.FlagSource, defaults.Source.Name, "Source to use (see `keyload sources list`)")
	fs.StringVar(&cfg.Source.Path, flags.FlagPath, "", "Source location: JSON document for json, variable prefix for env")
	fs.StringVar(&cfg.Source.BaseURL, flags.FlagBaseURL, "", "GitHub API base URL (GitHub Enterprise Server)")
	fs.StringVar(&cfg.Source.Token, flags.FlagToken, "", "GitHub token (default: GITHUB_TOKEN, GH_TOKEN, then gh auth token)")
}

func bindOutputFlags(cmd *cobra.Command, cfg *config.Config) {
	defaults := config.New()
	fs := cmd.Flags()

	fs.StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, defaults.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	fs.StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console output by status (LOADED, FAILED, SKIPPED, WRITTEN, DELETED). Comma-separated.")
	fs.StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	fs.StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	fs.StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	fs.StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report of the run to this path")
	fs.BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out)")
	fs.BoolVar(&cfg.Output.ShowValues, flags.FlagShowValues, false, "Print values in text console output")
}

func bindRuntimeFlags(cmd *cobra.Command, cfg *config.Config) {
	defaults := config.New()
	fs := cmd.Flags()

	fs.IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, defaults.Runtime.Concurrency, "Maximum per-key loads and writes in flight")
	fs.DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, defaults.Runtime.Timeout, "Global timeout")
	fs.BoolVar(&cfg.Runtime.Strict, flags.FlagStrict, false, "Reject bulk results that do not partition the requested keys")
}
