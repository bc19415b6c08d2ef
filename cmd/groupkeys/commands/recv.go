package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"groupkeys/internal/domain"
	"groupkeys/internal/relay"
	"groupkeys/internal/services/groupmsg"
)

// recv [message...]: ingest pending sender keys, then decrypt any messages given.
func recvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recv [message...]",
		Short: "Ingest pending sender keys and decrypt group messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, _ domain.UserID) error {
				n, err := wire.Messages.Ingest(ctx)
				switch {
				case errors.Is(err, relay.ErrNoRelay):
					fmt.Fprintln(os.Stderr, "no relay configured; skipping sender key ingest")
				case errors.Is(err, groupmsg.ErrRequeue):
					fmt.Printf("Ingested %d new sender keys\n", n)
					fmt.Fprintf(os.Stderr, "warning: %v\n", err)
				case err != nil:
					return err
				default:
					fmt.Printf("Ingested %d new sender keys\n", n)
				}

				for _, arg := range args {
					msg, err := groupmsg.DecodeMessage(arg)
					if err != nil {
						return err
					}
					plain, err := wire.Messages.Decrypt(msg)
					if err != nil {
						fmt.Fprintf(os.Stderr, "[%s] %s: %v\n", msg.ChannelID, msg.From, err)
						continue
					}
					fmt.Printf("[%s] %s: %s\n", plain.ChannelID, plain.From, plain.Plaintext)
				}
				return nil
			})
		},
	}
}
