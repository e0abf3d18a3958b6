package flags

// Package flags defines canonical CLI flag names shared across the CLI and engine.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Source.Name, flags.FlagSource, "github", "...")
//	arg := "--" + flags.FlagSource
const (
	// Source
	FlagSource  = "source"
	FlagPath    = "path"
	FlagBaseURL = "base-url"
	FlagToken   = "token"

	// Keys
	FlagKeys     = "keys"
	FlagKeysFile = "keys-file"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"
	FlagShowValues          = "show-values"
	FlagReport              = "report"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
	FlagStrict      = "strict"
	FlagVerbose     = "verbose"
	FlagConfig      = "config"

	// Writes
	FlagVerify = "verify"
)
