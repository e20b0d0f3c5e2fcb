package cli

import (
	"github.com/spf13/cobra"

	"github.com/ardiustech/eng-ai-assistant/internal/diag"
	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
	"github.com/ardiustech/eng-ai-assistant/internal/extract/gdocs"
)

// DocsCmd creates the Google Docs command
func DocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Read Google Docs through the browser",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <document-url>",
		Short: "Extract a document's title, outline and text",
		Example: `  assistant docs get https://docs.google.com/document/d/1AbC.../edit
  assistant docs get -o ./out https://docs.google.com/document/d/1AbC.../edit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := AppConfig
			if err := gdocs.ValidateURL(args[0]); err != nil {
				return err
			}

			tab, release, err := openTab(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer release()

			r := gdocs.NewRetriever(tab, gdocs.OptionsFromConfig(c.Docs, screenshotDir(c)))
			doc, err := r.Retrieve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			gdocs.PrintSummary(out, doc)
			paths, err := artifactWriter(c).Save(gdocs.ArtifactPrefix, doc, gdocs.FormatText(doc))
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
		Short: "Verify the browser is signed in to Google",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := AppConfig
			report := diag.New("Google Docs check")

			tab, release, err := openTab(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer release()
			report.Pass("Browser", "connected on port %d", c.Browser.Port)

			r := gdocs.NewRetriever(tab, gdocs.OptionsFromConfig(c.Docs, ""))
			if err := r.CheckAuth(cmd.Context()); err != nil {
				report.Fail("Authentication", err.Error(), hintFor(err)...)
			} else if account := r.Account(); account != "" {
				report.Pass("Authentication", "%s", account)
			} else {
				report.Pass("Authentication", "signed in")
			}

			report.Print(cmd.OutOrStdout(), !noColor)
			return report.Err()
		},
	})

	return cmd
}

func hintFor(err error) []string {
	if h := errdefs.Hint(err); h != "" {
		return []string{h}
	}
	return nil
}
