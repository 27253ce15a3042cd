// Command intervaldb runs the embeddable temporal reservation engine's
// standalone process: one or more tenant engines, an optional admin HTTP
// control plane, and the reaper driver that keeps holds and past bookings
// from accumulating forever.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "intervaldb",
		Short: "An embeddable temporal reservation engine",
		Long:  color.CyanString("intervaldb") + " serves resource hierarchies, rules, holds, and bookings over a WAL-backed, multi-tenant engine.",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newCompactCmd(&configPath))
	root.AddCommand(newGCCmd(&configPath))
	root.AddCommand(newConfigDumpCmd(&configPath))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}
