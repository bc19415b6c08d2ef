package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"groupkeys/internal/domain"
	"groupkeys/internal/services/identity"
)

// join <channel>: publish ourselves in the channel's member list.
func joinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <channel>",
		Short: "Publish yourself as a member of a channel",
		Long: `Publish yourself as a member of a channel and drop your own sender key
for it, so your next send distributes a fresh key that includes every member.

Existing members keep their already distributed keys and do not send them to
you. Until each of them runs "groupkeys invalidate <channel>", you cannot
decrypt their new messages in this channel.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel := domain.ChannelID(args[0])
			return withSession(cmd.Context(), func(ctx context.Context, user domain.UserID) error {
				id, err := wire.Identity.LoadIdentity(passphrase)
				if err != nil {
					return err
				}
				members, err := wire.Relay.ChannelMembers(ctx, channel)
				if err != nil {
					return err
				}
				self := identity.AsMember(user, id)
				updated := make([]domain.Member, 0, len(members)+1)
				for _, m := range members {
					if m.UserID != user {
						updated = append(updated, m)
					}
				}
				updated = append(updated, self)
				if err := wire.Relay.SetChannelMembers(ctx, channel, updated); err != nil {
					return err
				}
				// Membership changed: the next send distributes a fresh key.
				wire.Coordinator.Invalidate(channel)
				fmt.Printf("Joined %s (%d members)\n", channel, len(updated))
				return nil
			})
		},
	}
}
