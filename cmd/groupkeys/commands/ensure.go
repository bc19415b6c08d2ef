package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"groupkeys/internal/domain"
)

func ensureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure <channel>",
		Short: "Make sure your sender key for a channel exists and is distributed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel := domain.ChannelID(args[0])
			return withSession(cmd.Context(), func(ctx context.Context, _ domain.UserID) error {
				key, err := wire.Coordinator.EnsureDistributed(ctx, channel)
				if err != nil {
					return err
				}
				status := "distributed"
				if !wire.Keys.IsDistributed(channel) {
					status = "pending distribution"
				}
				fmt.Printf("%s: sender key %s (%s)\n", channel, key.DistributionID, status)
				return nil
			})
		},
	}
}

func invalidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <channel>",
		Short: "Drop your sender key for a channel so the next send generates a new one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel := domain.ChannelID(args[0])
			return withSession(cmd.Context(), func(context.Context, domain.UserID) error {
				wire.Coordinator.Invalidate(channel)
				fmt.Printf("%s: sender key invalidated\n", channel)
				return nil
			})
		},
	}
}
