package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"transitdesk/auth"
	"transitdesk/logging"
)

func newLoginCmd(root *rootOptions) *cobra.Command {
	var (
		token    string
		user     string
		username string
		password string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a token or with backend credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" && username == "" {
				return withCode(exitUsage, fmt.Errorf("either --token or --username is required"))
			}
			if user != "" && !json.Valid([]byte(user)) {
				return withCode(exitUsage, fmt.Errorf("--user must be a JSON document"))
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			var (
				s       *auth.Session
				message string
			)
			if token != "" {
				var raw json.RawMessage
				if user != "" {
					raw = json.RawMessage(user)
				}
				s, err = a.provider.Login(ctx, token, raw)
			} else {
				s, message, err = a.provider.BackendLogin(ctx, a.client, auth.Credentials{
					UserName: username,
					Password: password,
				})
			}
			if err != nil {
				return withCode(exitAuth, fmt.Errorf("login failed: %w", err))
			}

			logging.Audit(a.logger, s.UserID, logging.ActionLogin, s.RoleID.String())
			if message != "" {
				fmt.Fprintln(cmd.OutOrStdout(), message)
			}
			printSession(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Bearer token issued by the backend")
	cmd.Flags().StringVar(&user, "user", "", "User profile JSON stored with the token")
	cmd.Flags().StringVar(&username, "username", "", "Backend user name")
	cmd.Flags().StringVar(&password, "password", "", "Backend password")
	cmd.MarkFlagsMutuallyExclusive("token", "username")
	return cmd
}

func newLogoutCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			userID := a.provider.UserID()
			a.registry.Reset()
			if err := a.provider.Logout(cmd.Context()); err != nil {
				return withCode(exitStorage, err)
			}
			logging.Audit(a.logger, userID, logging.ActionLogout, "")
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.require()
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func printSession(w io.Writer, s *auth.Session) {
	fmt.Fprintf(w, "user %s, role %s (%d)\n", s.UserID, s.RoleID, int(s.RoleID))
	if entity := s.RoleID.In(auth.EntityRoles); !entity {
		fmt.Fprintln(w, "entity administration is not available for this role")
	}
}
