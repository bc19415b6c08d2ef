package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"groupkeys/internal/domain"
	"groupkeys/internal/services/groupmsg"
)

// send <channel> <message>: encrypt a group message and print it encoded.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <channel> <message>",
		Short: "Encrypt a group message for a channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel := domain.ChannelID(args[0])
			return withSession(cmd.Context(), func(ctx context.Context, _ domain.UserID) error {
				msg, err := wire.Messages.Send(ctx, channel, []byte(args[1]))
				if err != nil {
					return err
				}
				encoded, err := groupmsg.EncodeMessage(msg)
				if err != nil {
					return err
				}
				fmt.Println(encoded)
				return nil
			})
		},
	}
}
