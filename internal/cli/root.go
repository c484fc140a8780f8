// File: internal/cli/root.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Debug      bool
}

// NewRootCommand creates the lpump command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lpump",
		Short: "lpump - line protocol client on the I/O pump",
		Long: `lpump connects to a line protocol peer, greets it and logs every
event the protocol engine raises. All socket I/O runs through the
readiness-driven pump.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "trace every pump cycle")

	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}
