// Package cli builds the voting binary's command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ballotbox/voting-api/internal/pkg/config"
	"github.com/ballotbox/voting-api/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	// LogLevel overrides LOG_LEVEL when set.
	LogLevel string
}

// NewRootCommand creates the root command for the voting binary.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "voting",
		Short: "Voting API server",
		Long:  "Session-authenticated voting service: local and OAuth login, one vote per user, admin management.",
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (trace|debug|info|warn|error), overrides LOG_LEVEL")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSetupAdminCommand(opts))

	return cmd
}

// bootstrap loads configuration and initialises the shared logger.
func bootstrap(ctx context.Context, opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger.Init(logger.Options{
		Level:   level,
		Pretty:  cfg.IsDevelopment(),
		Service: "voting-api",
	})
	return cfg, nil
}
