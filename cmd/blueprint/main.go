// Command blueprint inspects and renders project files offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iac-studio/blueprint/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "blueprint",
		Short: "Inspect and render infrastructure project files",
		Long: `blueprint works on project JSON files as exported by the API or kept
in the browser blob (a JSON array of projects).

Commands:
  check    report broken references, cycles and deletability
  render   draw the dependency diagram as SVG or Graphviz DOT
  samples  print the built-in sample projects`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logger.Init(logLevel, "console")
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(checkCmd())
	root.AddCommand(renderCmd())
	root.AddCommand(samplesCmd())
	return root
}
