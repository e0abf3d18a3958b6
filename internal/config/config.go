package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - CLI flags in internal/cli/flags.go (including mergeFileConfig)
	// - the yaml/toml tags below, which define the --config file schema
	Source  Source  `yaml:"source" toml:"source"`
	Keys    Keys    `yaml:"keys" toml:"keys"`
	Output  Output  `yaml:"output" toml:"output"`
	Runtime Runtime `yaml:"runtime" toml:"runtime"`
}

type Source struct {
	// Name selects a registered source (see --source and `keyload sources list`).
	Name string `yaml:"name" toml:"name"`

	// Path is the source-specific location: the document for json, the
	// variable prefix for env (see --path).
	Path string `yaml:"path" toml:"path"`

	// BaseURL overrides the GitHub API endpoint, e.g. for GHES (see --base-url).
	BaseURL string `yaml:"base_url" toml:"base_url"`

	// Token authenticates against GitHub (see --token). Never read from a file.
	Token string `yaml:"-" toml:"-"`
}

type Keys struct {
	// List holds the keys to load (see --keys). Values may be provided as
	// repeated flags and/or comma-separated lists.
	List []string `yaml:"list" toml:"list"`

	// File names a file with one key per line (see --keys-file). Blank lines
	// and lines starting with '#' are ignored.
	File string `yaml:"file" toml:"file"`
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string `yaml:"console_format" toml:"console_format"`

	// ConsoleFilterStatus filters console output by key status (see --console-filter-status).
	// Allowed values: LOADED, FAILED, SKIPPED, WRITTEN, DELETED.
	ConsoleFilterStatus []string `yaml:"console_filter_status" toml:"console_filter_status"`

	// Out writes structured output to this path (see --out).
	Out string `yaml:"out" toml:"out"`

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string `yaml:"out_format" toml:"out_format"`

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string `yaml:"emit" toml:"emit"`

	// Report writes a Markdown summary of the run to this path (see --report).
	Report string `yaml:"report" toml:"report"`

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool `yaml:"no_console" toml:"no_console"`

	// ShowValues includes loaded values in text console output (see --show-values).
	// Structured sinks always carry values.
	ShowValues bool `yaml:"show_values" toml:"show_values"`
}

type Runtime struct {
	// Concurrency bounds in-flight per-key loads (see --concurrency). Must be >= 1.
	Concurrency int `yaml:"concurrency" toml:"concurrency"`

	// Timeout is the global timeout for the run (see --timeout). Must be > 0.
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`

	// Strict rejects bulk results whose failures and successes do not
	// partition the requested keys (see --strict).
	Strict bool `yaml:"strict" toml:"strict"`

	// Verbose enables debug logging and unscrubbed error details (see --verbose).
	Verbose bool `yaml:"verbose" toml:"verbose"`
}

var (
	consoleFormats = []string{"text", "json", "ndjson"}
	streamFormats  = []string{"json", "ndjson"}
	statuses       = []string{"LOADED", "FAILED", "SKIPPED", "WRITTEN", "DELETED"}
)

func New() *Config {
	return &Config{
		Source: Source{
			Name: "github",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 8,
			Timeout:     5 * time.Minute,
		},
	}
}

func (c *Config) Validate() error {
	c.Keys.List = splitCommaList(c.Keys.List)
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)
	c.Output.Emit = splitCommaList(c.Output.Emit)

	c.Source.Name = normalizeEnumValue(c.Source.Name)
	if c.Source.Name == "" {
		return errors.New("--source must be provided")
	}

	if len(c.Keys.List) == 0 && strings.TrimSpace(c.Keys.File) == "" {
		return errors.New("at least one of --keys or --keys-file must be provided")
	}

	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if err := checkEnum("--console-format", c.Output.ConsoleFormat, consoleFormats); err != nil {
		return err
	}

	for i, s := range c.Output.ConsoleFilterStatus {
		v := strings.ToUpper(strings.TrimSpace(s))
		if err := checkEnum("--console-filter-status", v, statuses); err != nil {
			return err
		}
		c.Output.ConsoleFilterStatus[i] = v
	}

	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if err := checkEnum("--emit", v, streamFormats); err != nil {
			return err
		}
		c.Output.Emit[i] = v
	}

	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			case "":
				return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
			default:
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if err := checkEnum("--out-format", c.Output.OutFormat, streamFormats); err != nil {
			return err
		}
	}

	return nil
}

// ResolveKeys returns the requested keys in order: --keys first, then the
// keys file. Duplicates are kept; the cache collapses them.
func (c *Config) ResolveKeys() ([]string, error) {
	keys := append([]string(nil), c.Keys.List...)
	if c.Keys.File == "" {
		return keys, nil
	}

	f, err := os.Open(c.Keys.File)
	if err != nil {
		return nil, fmt.Errorf("open keys file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}
	return keys, nil
}

func checkEnum(flag, v string, allowed []string) error {
	if v == "" {
		return fmt.Errorf("%s must be one of: %s", flag, strings.Join(allowed, ", "))
	}
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s: %s (must be one of: %s)", flag, v, strings.Join(allowed, ", "))
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
