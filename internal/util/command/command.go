package command

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/stablemail/go-relay/internal/api"
	"github.com/stablemail/go-relay/internal/config"
)

// NewSubcommandGroup returns a cobra command that only exists to group its
// subcommands; invoking it bare prints usage.
func NewSubcommandGroup(use string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use: use,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}

// WithServer initializes a fully wired server, runs f against it and shuts
// the server down afterwards. Meant for one-shot CLI tasks that need the
// live dependency graph without the HTTP listener.
func WithServer(ctx context.Context, cfg config.Server, f func(ctx context.Context, s *api.Server) error) error {
	s := api.NewServer(cfg)

	if err := s.Initialize(ctx); err != nil {
		return err
	}

	defer func() {
		_ = s.Shutdown(ctx)
	}()

	return f(ctx, s)
}
