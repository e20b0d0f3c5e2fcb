package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ardiustech/eng-ai-assistant/internal/diag"
	"github.com/ardiustech/eng-ai-assistant/internal/jira"
	"github.com/ardiustech/eng-ai-assistant/internal/keyring"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

// JiraCmd creates the Jira command
func JiraCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jira",
		Short: "Read your Jira tickets over the REST API",
		Long: `Uses JIRA_BASE_URL, JIRA_EMAIL and an API token from ATLASSIAN_API_TOKEN
(or the system keychain, see 'assistant jira login').`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "tickets",
		Short: "List unresolved tickets assigned to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := AppConfig
			c.Jira.ResolveToken()
			if err := c.Jira.Validate(); err != nil {
				return err
			}

			client := jira.NewClient(c.Jira)
			user, err := client.Myself(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ok(out, "Connected as %s (%s)", user.DisplayName, user.EmailAddress)

			r := jira.NewRetriever(client, c.Jira)
			tickets, err := r.UnresolvedAssignedToMe(cmd.Context())
			if err != nil {
				return err
			}
			jira.PrintTickets(out, tickets)

			paths, err := r.Save(artifactWriter(c), tickets)
			if err != nil {
				return err
			}
			for _, p := range paths.Files() {
				ok(out, "Saved %d ticket(s) to %s", len(tickets), p)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Test configuration, credentials and search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := AppConfig
			fromEnv := c.Jira.Token != ""
			c.Jira.ResolveToken()
			report := jira.Check(cmd.Context(), c.Jira)
			checkKeychain(report, fromEnv)
			report.Print(cmd.OutOrStdout(), !noColor)
			return report.Err()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "login",
		Short: "Store a Jira API token in the system keychain",
		Long: `Reads an API token from stdin and stores it in the system keychain, so
ATLASSIAN_API_TOKEN does not need to be set. Create a token at
https://id.atlassian.com/manage-profile/security/api-tokens`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !keyring.Available() {
				return errKeychainUnavailable
			}
			fmt.Fprint(cmd.ErrOrStderr(), "API token: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			token := strings.TrimSpace(line)
			if token == "" {
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				return errors.New("no token given")
			}
			if err := keyring.Set(keyring.JiraTokenAccount, token); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			logging.Component("cli").Debug("jira token stored")
			ok(cmd.OutOrStdout(), "Token stored in the system keychain")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Remove the stored Jira API token from the system keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !keyring.Available() {
				return errKeychainUnavailable
			}
			err := keyring.Delete(keyring.JiraTokenAccount)
			switch {
			case errors.Is(err, keyring.ErrNotFound):
				ok(cmd.OutOrStdout(), "No token stored")
				return nil
			case err != nil:
				return fmt.Errorf("remove token: %w", err)
			}
			ok(cmd.OutOrStdout(), "Token removed from the system keychain")
			return nil
		},
	})

	return cmd
}

var errKeychainUnavailable = errors.New("system keychain is not available; set ATLASSIAN_API_TOKEN instead")

// checkKeychain reports whether a token can be kept in the system keychain.
// An unusable keychain only warns: the environment variable still works.
func checkKeychain(r *diag.Report, tokenFromEnv bool) {
	available := keyring.Available()
	switch {
	case !available && tokenFromEnv:
		r.Warn("Keychain", "system keychain unavailable; using ATLASSIAN_API_TOKEN")
	case !available:
		r.Warn("Keychain", "system keychain unavailable",
			"Set ATLASSIAN_API_TOKEN; 'assistant jira login' needs a working keychain.")
	case keyring.Lookup(keyring.JiraTokenAccount) != "":
		r.Pass("Keychain", "token stored")
	default:
		r.Pass("Keychain", "available, no token stored")
	}
}
