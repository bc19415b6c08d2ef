package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys and store them securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if wire.Config.Account.UserID == "" {
				return fmt.Errorf("user id required (--user)")
			}
			_, fp, err := wire.Identity.GenerateIdentity(passphrase)
			if err != nil {
				return err
			}
			if err := wire.Config.Save(); err != nil {
				return err
			}
			fmt.Printf("Identity created for %s.\nFingerprint: %s\n", wire.Config.Account.UserID, fp)
			return nil
		},
	}
}
