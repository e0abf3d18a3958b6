package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"keyload/internal/loader"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version, commit, date := BuildInfo()
		names := make([]string, 0)
		for _, s := range loader.List() {
			names = append(names, s.Name())
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "keyload %s\n", version)
		fmt.Fprintf(w, "commit:  %s\n", commit)
		fmt.Fprintf(w, "built:   %s\n", date)
		fmt.Fprintf(w, "go:      %s\n", runtime.Version())
		fmt.Fprintf(w, "sources: %s\n", strings.Join(names, ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
