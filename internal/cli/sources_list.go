package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"keyload/internal/loader"
)

var sourcesListQuiet bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources keys can be loaded from",
	Long: `Inspect the sources registered in this build.

A source is the source of truth behind the cache (see "keyload load --help").

Examples:
  # List all available sources
  keyload sources list
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available sources",
	Long: `List all sources registered in this build, sorted by name.

Examples:
  keyload sources list
  keyload sources list -q

Output:
  A vertical list of sources:
    ----------------------------------------
    SOURCE: {NAME}
    ----------------------------------------
    {DESCRIPTION}
    Bulk: {yes|no}  Writable: {yes|no}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, s := range loader.List() {
			if sourcesListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), s.Name())
				continue
			}
			printSource(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

// sourceCapabilities is implemented by sources that can report what their
// loaders support without being opened.
type sourceCapabilities interface {
	Bulk() bool
	Writable() bool
}

func printSource(w io.Writer, s loader.Source) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "SOURCE: %s\n", s.Name())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, s.Description())
	if c, ok := s.(sourceCapabilities); ok {
		fmt.Fprintf(w, "Bulk: %s  Writable: %s\n", yesNo(c.Bulk()), yesNo(c.Writable()))
	}
	fmt.Fprintln(w)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesListCmd.Flags().BoolVarP(&sourcesListQuiet, "quiet", "q", false, "Only print source names")
}
