package cli

import (
	"github.com/spf13/cobra"
)

// NewTokenCmd создаёт группу команд для управления токенами.
func NewTokenCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage access tokens (admin)",
	}

	cmd.AddCommand(
		newTokenRevokeCmd(clientFn, outputFn),
	)

	return cmd
}

func newTokenRevokeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke ID",
		Short: "Revoke an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.RevokeToken(args[0]); err != nil {
				return err
			}

			out.Success("Token revoked")
			return nil
		},
	}
}
