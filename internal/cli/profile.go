package cli

import (
	"fmt"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd создаёт команду получения токена.
func NewLoginCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				raw, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Fprintln(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				password = string(raw)
			}

			grant, err := client.Login(username, password)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Token expires in %d seconds", grant.ExpiresIn))
			// Сам токен идёт в stdout, чтобы его можно было подставить:
			// export GATEKEEPER_TOKEN=$(gatekeeper login -u admin)
			if out.jsonMode {
				out.JSON(grant)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), grant.AccessToken)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	cmd.MarkFlagRequired("username")

	return cmd
}

// NewProfileCmd создаёт группу команд для работы с собственным профилем.
func NewProfileCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	cmd.AddCommand(
		newProfileShowCmd(clientFn, outputFn),
		newProfileUpdateCmd(clientFn, outputFn),
		newProfileChangePasswordCmd(clientFn, outputFn),
	)

	return cmd
}

func userFields(u *UserResponse) [][2]string {
	return [][2]string{
		{"ID", u.ID},
		{"Username", u.Username},
		{"Email", u.Email},
		{"Fullname", u.Fullname},
		{"Active", strconv.FormatBool(u.IsActive)},
		{"Role", u.Role},
		{"Scopes", u.ScopeNames()},
		{"Created", u.CreatedAt},
		{"Updated", u.UpdatedAt},
	}
}

func newProfileShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			user, err := client.Profile()
			if err != nil {
				return err
			}

			out.Record(userFields(user), user)
			return nil
		},
	}
}

func newProfileUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var email, fullname string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var req UpdateProfileRequest
			if cmd.Flags().Changed("email") {
				req.Email = &email
			}
			if cmd.Flags().Changed("fullname") {
				req.Fullname = &fullname
			}

			user, err := client.UpdateProfile(req)
			if err != nil {
				return err
			}

			out.Success("Profile updated")
			out.Record(userFields(user), user)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().StringVar(&fullname, "fullname", "", "New full name")

	return cmd
}

func newProfileChangePasswordCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var oldPassword, newPassword string

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change your password (revokes all tokens)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.ChangePassword(oldPassword, newPassword); err != nil {
				return err
			}

			out.Success("Password changed, all tokens revoked")
			return nil
		},
	}

	cmd.Flags().StringVar(&oldPassword, "old", "", "Current password (required)")
	cmd.Flags().StringVar(&newPassword, "new", "", "New password (required)")
	cmd.MarkFlagRequired("old")
	cmd.MarkFlagRequired("new")

	return cmd
}
