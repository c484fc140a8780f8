// File: internal/cli/run.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/momentics/hioload-pump/control"
	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Name      string
	Reconnect bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [host] [port]",
		Short: "Connect and pump until interrupted",
		Long: `Connect to host:port (default localhost:8194), send the greeting and
log engine events until SIGINT or SIGTERM. Positional arguments override
the configuration file.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts, cmd, args)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
			d, err := NewDriver(cfg, logger)
			if err != nil {
				return err
			}
			return d.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "name announced in the greeting")
	cmd.Flags().BoolVarP(&opts.Reconnect, "reconnect", "r", false, "reconnect with backoff when the transport closes")

	return cmd
}

// resolveConfig layers file, flags and positional arguments, in that order.
func resolveConfig(opts *RunOptions, cmd *cobra.Command, args []string) (*control.Config, error) {
	cfg := control.DefaultConfig()
	if opts.ConfigPath != "" {
		loaded, err := control.LoadFile(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.Debug {
		cfg.Debug = true
	}
	if cmd.Flags().Changed("name") {
		cfg.Name = opts.Name
	}
	if cmd.Flags().Changed("reconnect") {
		cfg.Reconnect.Enabled = opts.Reconnect
	}
	if len(args) > 0 {
		cfg.Host = args[0]
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", args[1], err)
		}
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
