package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"groupkeys/internal/domain"
)

// keys <channel>: show sender key state. Chain keys are never printed.
func keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys <channel>",
		Short: "Show sender key state for a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel := domain.ChannelID(args[0])
			return withSession(cmd.Context(), func(_ context.Context, user domain.UserID) error {
				if own, ok := wire.Keys.GetOwnKey(channel); ok {
					fmt.Printf("own      %s index=%d distributed=%t\n",
						own.DistributionID, own.ChainIndex, wire.Keys.IsDistributed(channel))
				} else {
					fmt.Println("own      none")
				}
				for _, e := range wire.Keys.ListReceivedKeys(channel) {
					kind := "received"
					if e.FromUserID == user {
						kind = "self"
					}
					fmt.Printf("%-8s %s index=%d from=%s\n", kind, e.Key.DistributionID, e.Key.ChainIndex, e.FromUserID)
				}
				c := wire.Keys.Counts()
				fmt.Printf("totals   own=%d received=%d distributed=%d\n", c.OwnKeys, c.Received, c.Distributed)
				return nil
			})
		},
	}
}
