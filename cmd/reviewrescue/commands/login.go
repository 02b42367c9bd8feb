// ABOUTME: Login and logout commands for the Google account session
// ABOUTME: Drives the manual OAuth consent flow and the two-phase logout
package commands

import (
	"bufio"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/review-rescue/internal/google"
)

const oauthScopes = "https://www.googleapis.com/auth/userinfo.email https://www.googleapis.com/auth/business.manage"

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var authCode string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with your Google account",
		Long: `Log in with your Google account.

Opens a consent URL; paste the authorization code back to complete the
login. The session is stored locally and refreshed automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Config.GoogleClientID == "" {
				return fmt.Errorf("GOOGLE_CLIENT_ID is not set; see the README for setup")
			}

			if authCode == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Open this URL in your browser and approve access:")
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), "  "+consentURL(app.Config.GoogleClientID))
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprint(cmd.OutOrStdout(), "Paste the authorization code here: ")

				reader := bufio.NewReader(cmd.InOrStdin())
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}
				authCode = strings.TrimSpace(line)
			}
			if authCode == "" {
				return fmt.Errorf("no authorization code provided")
			}

			ctx := google.WithAuthCode(cmd.Context(), authCode)
			if _, err := app.Sessions.Authenticate(ctx); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			session, err := app.Sessions.Session()
			if err != nil {
				return err
			}
			if !quiet {
				if session.Email != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", session.Email)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&authCode, "code", "", "authorization code (skips the interactive prompt)")
	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the local session",
		Long: `Log out of your Google account.

Revokes the access token at Google (best effort) and clears the local
session. The cached reviews are kept; use a full sync after the next
login to refresh them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Sessions.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			}
			return nil
		},
	}
}

// consentURL builds the manual OAuth consent URL.
func consentURL(clientID string) string {
	query := url.Values{}
	query.Set("client_id", clientID)
	query.Set("redirect_uri", "urn:ietf:wg:oauth:2.0:oob")
	query.Set("response_type", "code")
	query.Set("scope", oauthScopes)
	query.Set("access_type", "offline")
	return "https://accounts.google.com/o/oauth2/v2/auth?" + query.Encode()
}
