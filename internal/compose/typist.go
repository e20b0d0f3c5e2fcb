package compose

import (
	"context"
	"fmt"
	"time"

	"github.com/ardiustech/eng-ai-assistant/internal/config"
)

// Keymap binds composer actions to key chords in Playwright notation.
type Keymap struct {
	SoftNewline string
	Indent      string
	Outdent     string
	ExitList    string
	SelectAll   string
	Clear       string
}

// DefaultKeymap matches Slack's composer.
func DefaultKeymap() Keymap {
	return Keymap{
		SoftNewline: "Shift+Enter",
		Indent:      "Tab",
		Outdent:     "Shift+Tab",
		ExitList:    "Backspace",
		SelectAll:   "ControlOrMeta+a",
		Clear:       "Backspace",
	}
}

// KeymapFromConfig overlays configured bindings on DefaultKeymap.
func KeymapFromConfig(c config.Keymap) Keymap {
	k := DefaultKeymap()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&k.SoftNewline, c.SoftNewline)
	set(&k.Indent, c.Indent)
	set(&k.Outdent, c.Outdent)
	set(&k.ExitList, c.ExitList)
	set(&k.SelectAll, c.SelectAll)
	set(&k.Clear, c.Clear)
	return k
}

// For returns the chord bound to a non-typing op.
func (k Keymap) For(kind OpKind) string {
	switch kind {
	case OpSoftNewline:
		return k.SoftNewline
	case OpIndent:
		return k.Indent
	case OpOutdent:
		return k.Outdent
	case OpExitList:
		return k.ExitList
	}
	return ""
}

// Keyboard is the subset of a page the Typist drives.
type Keyboard interface {
	Press(key string) error
	Type(text string, delay time.Duration) error
}

// Typist executes plans against a focused composer.
type Typist struct {
	Keys Keymap

	// TypeDelay is the per-character delay. AfterNewline and AfterIndent
	// pause after soft newlines and after indent/outdent keystrokes so the
	// composer can re-render the list.
	TypeDelay    time.Duration
	AfterNewline time.Duration
	AfterIndent  time.Duration

	kb    Keyboard
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTypist returns a Typist for kb with the default keymap and no pauses.
func NewTypist(kb Keyboard) *Typist {
	return &Typist{Keys: DefaultKeymap(), kb: kb, sleep: sleep}
}

// SetSleep replaces the pause function used between keystrokes.
func (t *Typist) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	t.sleep = fn
}

// Clear selects everything in the composer and deletes it.
func (t *Typist) Clear(ctx context.Context) error {
	for _, key := range []string{t.Keys.SelectAll, t.Keys.Clear} {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.kb.Press(key); err != nil {
			return fmt.Errorf("clear composer: %w", err)
		}
	}
	return nil
}

// Run executes ops in order, stopping at the first error.
func (t *Typist) Run(ctx context.Context, ops []Op) error {
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.step(ctx, op); err != nil {
			return fmt.Errorf("step %d of %d: %w", i+1, len(ops), err)
		}
	}
	return nil
}

func (t *Typist) step(ctx context.Context, op Op) error {
	switch op.Kind {
	case OpType:
		return t.kb.Type(op.Text, t.TypeDelay)
	case OpSoftNewline:
		if err := t.kb.Press(t.Keys.SoftNewline); err != nil {
			return err
		}
		return t.sleep(ctx, t.AfterNewline)
	case OpIndent, OpOutdent:
		if err := t.kb.Press(t.Keys.For(op.Kind)); err != nil {
			return err
		}
		return t.sleep(ctx, t.AfterIndent)
	case OpExitList:
		return t.kb.Press(t.Keys.ExitList)
	}
	return fmt.Errorf("unknown op kind %d", op.Kind)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
