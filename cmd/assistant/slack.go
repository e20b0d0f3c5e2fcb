package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ardiustech/eng-ai-assistant/internal/compose"
	"github.com/ardiustech/eng-ai-assistant/internal/diag"
	"github.com/ardiustech/eng-ai-assistant/internal/extract/slack"
)

// SlackCmd creates the Slack command
func SlackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slack",
		Short: "Read threads from and post messages to Slack through the browser",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "thread <thread-url>",
		Short: "Extract the messages of a thread or channel view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := AppConfig
			tab, release, err := openTab(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer release()

			r := slack.NewRetriever(tab, slack.OptionsFromConfig(c.Slack, screenshotDir(c)))
			thread, err := r.Retrieve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			slack.PrintSummary(out, thread)
			paths, err := artifactWriter(c).Save(slack.ArtifactPrefix, thread, slack.FormatText(thread))
			if err != nil {
				return err
			}
			for _, p := range paths.Files() {
				ok(out, "Saved %s", p)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify the browser is signed in to the Slack workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := AppConfig
			report := diag.New("Slack check")

			tab, release, err := openTab(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer release()
			report.Pass("Browser", "connected on port %d", c.Browser.Port)

			r := slack.NewRetriever(tab, slack.OptionsFromConfig(c.Slack, ""))
			if err := r.CheckAuth(cmd.Context()); err != nil {
				report.Fail("Authentication", err.Error(), hintFor(err)...)
			} else {
				report.Pass("Authentication", "signed in to %s", c.Slack.WorkspaceURL)
			}

			report.Print(cmd.OutOrStdout(), !noColor)
			return report.Err()
		},
	})

	cmd.AddCommand(postCmd())

	return cmd
}

func postCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "post <message-file> [dm-url]",
		Short: "Type a message into a conversation and send it",
		Long: `Reads the message from a file ("-" for stdin) and types it into the
conversation's composer, then sends it. The conversation is the dm-url
argument or SLACK_DM_URL.

Formatting:
  - item / • item    bulleted list item
  1. item            numbered list item
  <tab>- item        nested bullet, one tab per level
  blank line         paragraph break

Use --dry-run to print the keystrokes without opening the browser.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := AppConfig
			text, err := readMessage(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			if dryRun {
				printPlan(cmd.OutOrStdout(), text, compose.KeymapFromConfig(c.Slack.Post.Keymap))
				return nil
			}

			dmArg := ""
			if len(args) > 1 {
				dmArg = args[1]
			}
			dmURL, err := c.Slack.ValidatePost(dmArg)
			if err != nil {
				return err
			}

			tab, release, err := openTab(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer release()

			if err := slack.NewPoster(tab, slack.PostOptionsFromConfig(c.Slack)).Post(cmd.Context(), dmURL, text); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "Message sent to %s", dmURL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the keystroke plan instead of posting")

	return cmd
}

func readMessage(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read message: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("message %s is empty", path)
	}
	return string(data), nil
}

func printPlan(w io.Writer, text string, keys compose.Keymap) {
	ops := compose.Plan(text)
	for i, step := range compose.Describe(ops, keys) {
		fmt.Fprintf(w, "%3d  %s\n", i+1, step)
	}
	fmt.Fprintf(w, "\n%d steps: %d soft newlines, %d indents, %d outdents, %d list exits\n",
		len(ops),
		compose.Count(ops, compose.OpSoftNewline),
		compose.Count(ops, compose.OpIndent),
		compose.Count(ops, compose.OpOutdent),
		compose.Count(ops, compose.OpExitList))
}
