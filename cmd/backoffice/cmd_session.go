package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
	resetEmail    string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and keep the session locally",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		current.sessions.Logout(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		id := current.sessions.Identity()
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", id.Name, id.Email, id.ID)
		return nil
	},
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Send a password reset email",
	RunE:  runForgotPassword,
}

func runForgotPassword(cmd *cobra.Command, _ []string) error {
	if resetEmail == "" {
		return errors.New("--email is required")
	}
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	if err := current.sessions.ForgotPassword(ctx, resetEmail); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reset email sent to %s\n", resetEmail)
	return nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if loginEmail == "" || loginPassword == "" {
		return errors.New("--email and --password are required")
	}
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	if err := current.sessions.SignIn(ctx, loginEmail, loginPassword); err != nil {
		return err
	}
	id := current.sessions.Identity()
	fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", id.Email)
	return nil
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	forgotPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "Account email")
}
