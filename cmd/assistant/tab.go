package cli

import (
	"context"

	"github.com/ardiustech/eng-ai-assistant/internal/artifact"
	"github.com/ardiustech/eng-ai-assistant/internal/browser"
	"github.com/ardiustech/eng-ai-assistant/internal/config"
	"github.com/ardiustech/eng-ai-assistant/internal/defaults"
	"github.com/ardiustech/eng-ai-assistant/internal/extract/gdocs"
	"github.com/ardiustech/eng-ai-assistant/internal/extract/slack"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

// Tab is the browser tab surface the commands drive.
type Tab interface {
	gdocs.Page
	slack.Page
}

// openTab makes sure a browser is available and opens a tab in its
// default context. release closes the tab and detaches; the browser keeps
// running so its logins carry over to the next command.
var openTab = func(ctx context.Context, c *config.Config) (Tab, func(), error) {
	sess, err := browser.NewManager(browser.OptionsFromConfig(c.Browser)).EnsureAvailable(ctx)
	if err != nil {
		return nil, nil, err
	}
	if sess.Owned() {
		logging.Component("cli").Info("browser launched; log in to Google and Slack in it if prompted", "profile", c.Browser.ProfileDir)
	}
	page, err := sess.NewPage(ctx)
	if err != nil {
		_ = sess.Disconnect()
		browser.Shutdown()
		return nil, nil, err
	}
	release := func() {
		_ = page.Close()
		_ = sess.Disconnect()
		browser.Shutdown()
	}
	return page, release, nil
}

// screenshotDir is where failure screenshots go, or "" when disabled.
func screenshotDir(c *config.Config) string {
	if !c.Output.Screenshots {
		return ""
	}
	if err := defaults.EnsureDir(c.Output.Dir); err != nil {
		logging.Component("cli").Warn("screenshots disabled", "error", err)
		return ""
	}
	return c.Output.Dir
}

func artifactWriter(c *config.Config) *artifact.Writer {
	return artifact.FromConfig(c.Output)
}
