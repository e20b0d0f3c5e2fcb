package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ardiustech/eng-ai-assistant/internal/browser"
	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
)

// BrowserCmd creates the browser management command
func BrowserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browser",
		Short: "Start and inspect the debugging browser",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Attach to the browser on the debug port, launching it if needed",
		Long: `Probes the debug port. A browser already serving there is attached to and
left alone; otherwise Edge (or Chrome) is launched with a dedicated profile.
The browser keeps running after this command exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := AppConfig
			sess, err := browser.NewManager(browser.OptionsFromConfig(c.Browser)).EnsureAvailable(cmd.Context())
			if err != nil {
				return err
			}
			defer browser.Shutdown()
			defer func() { _ = sess.Disconnect() }()

			out := cmd.OutOrStdout()
			version := ""
			if v := sess.Version(); v != nil {
				version = v.Browser
			}
			if sess.Owned() {
				ok(out, "Launched %s on port %d", version, sess.Port())
				fmt.Fprintf(out, "  Profile: %s\n", c.Browser.ProfileDir)
				fmt.Fprintln(out, "  Log in to Google and Slack in the new window; later commands reuse the session.")
			} else {
				ok(out, "Attached to running %s on port %d", version, sess.Port())
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show what is serving on the debug port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := browser.OptionsFromConfig(AppConfig.Browser)
			v, err := browser.ProbeVersion(cmd.Context(), opts.Port, opts.ProbeTimeout)
			if err != nil {
				return &errdefs.ConnectionError{Endpoint: fmt.Sprintf("localhost:%d", opts.Port), Err: err}
			}
			out := cmd.OutOrStdout()
			ok(out, "Browser reachable on port %d", opts.Port)
			fmt.Fprintf(out, "  Browser:   %s\n", v.Browser)
			fmt.Fprintf(out, "  Protocol:  %s\n", v.ProtocolVersion)
			fmt.Fprintf(out, "  WebSocket: %s\n", v.WebSocketDebuggerURL)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "tabs",
		Short: "List the open tabs of the debugging browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := browser.OptionsFromConfig(AppConfig.Browser)
			tabs, err := browser.ListTabs(cmd.Context(), opts.Port, opts.ProbeTimeout)
			if err != nil {
				return &errdefs.ConnectionError{Endpoint: fmt.Sprintf("localhost:%d", opts.Port), Err: err}
			}
			out := cmd.OutOrStdout()
			if len(tabs) == 0 {
				fmt.Fprintln(out, "No open tabs.")
				return nil
			}
			for _, t := range tabs {
				id := t.ID
				if len(id) > 8 {
					id = id[:8]
				}
				fmt.Fprintf(out, "[%s] %s\n    %s\n", id, t.Title, t.URL)
			}
			return nil
		},
	})

	return cmd
}
