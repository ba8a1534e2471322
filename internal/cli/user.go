package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewUserCmd создаёт группу команд для администрирования пользователей.
func NewUserCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users (admin)",
	}

	cmd.AddCommand(
		newUserListCmd(clientFn, outputFn),
		newUserCreateCmd(clientFn, outputFn),
		newUserShowCmd(clientFn, outputFn),
		newUserUpdateCmd(clientFn, outputFn),
		newUserSetAdminCmd(clientFn, outputFn),
		newUserTokensCmd(clientFn, outputFn),
	)

	return cmd
}

var userListHeaders = []string{"ID", "USERNAME", "ROLE", "ACTIVE", "SCOPES"}

func userRow(u UserResponse) []string {
	return []string{u.ID, u.Username, u.Role, strconv.FormatBool(u.IsActive), u.ScopeNames()}
}

func newUserListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			users, err := client.ListUsers()
			if err != nil {
				return err
			}

			rows := make([][]string, len(users))
			for i, u := range users {
				rows[i] = userRow(u)
			}

			out.Print(userListHeaders, rows, users)
			return nil
		},
	}
}

func newUserCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req CreateUserRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			user, err := client.CreateUser(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("User created: %s", user.ID))
			out.Record(userFields(user), user)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email")
	cmd.Flags().StringVar(&req.Fullname, "fullname", "", "Full name")
	cmd.Flags().StringSliceVar(&req.Scopes, "scope", nil, "Scope to grant (repeatable)")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newUserShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show user details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			user, err := client.GetUser(args[0])
			if err != nil {
				return err
			}

			out.Record(userFields(user), user)
			return nil
		},
	}
}

func newUserUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var email, fullname string
	var active bool
	var grants, removals []string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var req UpdateUserRequest
			if cmd.Flags().Changed("email") {
				req.Email = &email
			}
			if cmd.Flags().Changed("fullname") {
				req.Fullname = &fullname
			}
			if cmd.Flags().Changed("active") {
				req.IsActive = &active
			}
			for _, s := range grants {
				req.Scopes = append(req.Scopes, ScopeGrant{Scope: s, IsActive: true})
			}
			req.RemoveScopes = removals

			user, err := client.UpdateUser(args[0], req)
			if err != nil {
				return err
			}

			out.Success("User updated")
			out.Record(userFields(user), user)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().StringVar(&fullname, "fullname", "", "New full name")
	cmd.Flags().BoolVar(&active, "active", true, "Activate or deactivate the user")
	cmd.Flags().StringSliceVar(&grants, "grant", nil, "Scope to grant (repeatable)")
	cmd.Flags().StringSliceVar(&removals, "remove", nil, "Scope to remove (repeatable)")

	return cmd
}

func newUserSetAdminCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var enabled bool

	cmd := &cobra.Command{
		Use:   "set-admin ID",
		Short: "Grant or revoke admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.SetAdmin(args[0], enabled); err != nil {
				return err
			}

			if enabled {
				out.Success("Admin role granted")
			} else {
				out.Success("Admin role revoked")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&enabled, "enabled", true, "Grant (true) or revoke (false)")

	return cmd
}

func newUserTokensCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens ID",
		Short: "List user's access tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tokens, err := client.ListUserTokens(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "ISSUED", "EXPIRES", "REVOKED"}
			rows := make([][]string, len(tokens))
			for i, t := range tokens {
				rows[i] = []string{t.ID, t.IssuedAt, t.ExpiresAt, strconv.FormatBool(t.IsRevoked)}
			}

			out.Print(headers, rows, tokens)
			return nil
		},
	}
}
