package slack

import (
	"context"
	"time"

	"github.com/ardiustech/eng-ai-assistant/internal/browser"
	"github.com/ardiustech/eng-ai-assistant/internal/compose"
	"github.com/ardiustech/eng-ai-assistant/internal/config"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

// PostOptions tunes the poster.
type PostOptions struct {
	UserAgent       string
	Composer        string
	SendButton      string
	ComposerTimeout time.Duration
	NavigateTimeout time.Duration
	TypeDelay       time.Duration
	AfterNavigation time.Duration
	AfterSend       time.Duration
	AfterNewline    time.Duration
	AfterIndent     time.Duration
	Keys            compose.Keymap
}

// PostOptionsFromConfig builds PostOptions from the slack config section.
func PostOptionsFromConfig(c config.Slack) PostOptions {
	return PostOptions{
		UserAgent:       c.UserAgent,
		Composer:        c.Post.Composer,
		SendButton:      c.Post.SendButton,
		ComposerTimeout: c.Post.ComposerTimeout,
		NavigateTimeout: c.LoadTimeout,
		TypeDelay:       c.Post.TypeDelay,
		AfterNavigation: c.Post.AfterNavigation,
		AfterSend:       c.Post.AfterSend,
		AfterNewline:    c.Post.AfterNewline,
		AfterIndent:     c.Post.AfterIndent,
		Keys:            compose.KeymapFromConfig(c.Post.Keymap),
	}
}

// Poster types formatted messages into a conversation's composer.
type Poster struct {
	page  Page
	opts  PostOptions
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoster hardens page and returns a Poster.
func NewPoster(page Page, opts PostOptions) *Poster {
	Harden(page, opts.UserAgent)
	return &Poster{page: page, opts: opts, sleep: browser.Sleep}
}

// Post opens dmURL, replaces the composer's contents with text and sends
// it. Lines starting with "- " or "• " become bullets, "N. " numbered
// items, and leading tabs nest bullets. The tab is closed afterwards.
func (p *Poster) Post(ctx context.Context, dmURL, text string) error {
	log := logging.Component("slack")
	defer func() {
		if err := p.page.Close(); err != nil {
			log.Debug("close tab", "error", err)
		}
	}()

	log.Info("opening conversation", "url", dmURL)
	if err := p.page.Navigate(ctx, dmURL, p.opts.NavigateTimeout); err != nil {
		return err
	}
	if err := p.sleep(ctx, p.opts.AfterNavigation); err != nil {
		return err
	}

	if err := p.page.WaitForSelector(ctx, p.opts.Composer, p.opts.ComposerTimeout); err != nil {
		return err
	}
	if err := p.page.Click(ctx, p.opts.Composer, p.opts.ComposerTimeout); err != nil {
		return err
	}

	typist := compose.NewTypist(p.page)
	typist.Keys = p.opts.Keys
	typist.TypeDelay = p.opts.TypeDelay
	typist.AfterNewline = p.opts.AfterNewline
	typist.AfterIndent = p.opts.AfterIndent
	typist.SetSleep(p.sleep)

	if err := typist.Clear(ctx); err != nil {
		return err
	}
	ops := compose.Plan(text)
	log.Debug("typing message", "steps", len(ops))
	if err := typist.Run(ctx, ops); err != nil {
		return err
	}

	if err := p.page.Click(ctx, p.opts.SendButton, p.opts.ComposerTimeout); err != nil {
		return err
	}
	log.Info("message sent")
	return p.sleep(ctx, p.opts.AfterSend)
}
