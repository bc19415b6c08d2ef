package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func logoutCmd() *cobra.Command {
	var wipe bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Close the session, persisting or wiping the sender key backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := login(ctx); err != nil {
				return err
			}
			if err := wire.Session.Logout(ctx, wipe); err != nil {
				return err
			}
			if wipe {
				fmt.Println("Logged out; backup wiped")
			} else {
				fmt.Println("Logged out")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&wipe, "wipe", false, "delete the encrypted sender key backup")
	return cmd
}
