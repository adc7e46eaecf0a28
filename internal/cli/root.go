// Package cli holds the cobra command tree for the fracturelab binary.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fracturelab",
		Short: "Crack monitoring for a bonded-particle simulation",
		Long: `fracturelab runs a bonded-particle simulation with a crack monitor
attached, serving crack snapshots to viewers over HTTP and websockets or
printing a summary after a headless run.`,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}
