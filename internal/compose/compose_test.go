package compose

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardiustech/eng-ai-assistant/internal/config"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		in    string
		kind  LineKind
		depth int
		text  string
	}{
		{"", LineBlank, 0, ""},
		{"\t\t", LineBlank, 0, ""},
		{"Hello team", LinePlain, 0, "Hello team"},
		{"- first", LineBullet, 0, "first"},
		{"\t- nested", LineBullet, 1, "nested"},
		{"\t\t• deeper", LineBullet, 2, "deeper"},
		{"1. step one", LineNumbered, 0, "step one"},
		{"12. step twelve\r", LineNumbered, 0, "step twelve"},
		{"-not a bullet", LinePlain, 0, "-not a bullet"},
		{"3.14 is pi", LinePlain, 0, "3.14 is pi"},
		{"  - spaced bullet", LineBullet, 0, "spaced bullet"},
		{"\t  •   padded  ", LineBullet, 1, "padded"},
		{" 1. x ", LineNumbered, 0, "x"},
		{"  trailing space  ", LinePlain, 0, "trailing space"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			l := ParseLine(tt.in)
			assert.Equal(t, tt.kind, l.Kind)
			assert.Equal(t, tt.depth, l.Depth)
			assert.Equal(t, tt.text, l.Text)
		})
	}
}

func TestPlainOnlyDocument(t *testing.T) {
	ops := Plan("Hi all\n\nShipping today.\nThanks\n")

	assert.Equal(t, 4, Count(ops, OpSoftNewline), "one soft newline per line")
	assert.Zero(t, Count(ops, OpIndent))
	assert.Zero(t, Count(ops, OpOutdent))
	assert.Zero(t, Count(ops, OpExitList))
	assert.Equal(t, []Op{
		{Kind: OpType, Text: "Hi all"}, {Kind: OpSoftNewline},
		{Kind: OpSoftNewline},
		{Kind: OpType, Text: "Shipping today."}, {Kind: OpSoftNewline},
		{Kind: OpType, Text: "Thanks"}, {Kind: OpSoftNewline},
	}, ops)
}

func TestBulletDepthsSingleSteps(t *testing.T) {
	ops := Plan("- a\n\t- b\n\t\t- c\n\t- d\n- e")

	assert.Equal(t, 2, Count(ops, OpIndent))
	assert.Equal(t, 2, Count(ops, OpOutdent))
	assert.Equal(t, []Op{
		{Kind: OpType, Text: "* a"},
		{Kind: OpSoftNewline}, {Kind: OpIndent}, {Kind: OpType, Text: "b"},
		{Kind: OpSoftNewline}, {Kind: OpIndent}, {Kind: OpType, Text: "c"},
		{Kind: OpSoftNewline}, {Kind: OpOutdent}, {Kind: OpType, Text: "d"},
		{Kind: OpSoftNewline}, {Kind: OpOutdent}, {Kind: OpType, Text: "e"},
	}, ops)
}

func TestDepthJumpsAreNeverBatched(t *testing.T) {
	ops := Plan("- top\n\t\t\t- three deep\n- back")
	assert.Equal(t, 3, Count(ops, OpIndent))
	assert.Equal(t, 3, Count(ops, OpOutdent))
	for _, op := range ops {
		if op.Kind == OpType {
			assert.NotContains(t, op.Text, "\t")
		}
	}
}

func TestFirstBulletNested(t *testing.T) {
	ops := Plan("\t\t- starts deep")
	assert.Equal(t, []Op{
		{Kind: OpType, Text: "* "},
		{Kind: OpIndent}, {Kind: OpIndent},
		{Kind: OpType, Text: "starts deep"},
	}, ops)
}

func TestSpaceIndentedMarkersStayInList(t *testing.T) {
	ops := Plan("- a\n  - b\n 2. c\nplain ")

	assert.Equal(t, []Op{
		{Kind: OpType, Text: "* a"},
		{Kind: OpSoftNewline}, {Kind: OpType, Text: "b"},
		{Kind: OpSoftNewline}, {Kind: OpExitList},
		{Kind: OpType, Text: "2. c"},
		{Kind: OpSoftNewline}, {Kind: OpExitList}, {Kind: OpSoftNewline},
		{Kind: OpType, Text: "plain"}, {Kind: OpSoftNewline},
	}, ops)
}

func TestNumberedToPlainNoOutdent(t *testing.T) {
	ops := Plan("1. one\n2. two\nAfter")

	assert.Zero(t, Count(ops, OpOutdent))
	assert.Equal(t, []Op{
		{Kind: OpType, Text: "1. one"},
		{Kind: OpSoftNewline}, {Kind: OpType, Text: "two"},
		{Kind: OpSoftNewline}, {Kind: OpExitList}, {Kind: OpSoftNewline},
		{Kind: OpType, Text: "After"}, {Kind: OpSoftNewline},
	}, ops)
}

func TestNestedBulletToPlainOutdents(t *testing.T) {
	ops := Plan("- a\n\t- b\n\t\t- c\nAfter")

	assert.Equal(t, []Op{
		{Kind: OpType, Text: "* a"},
		{Kind: OpSoftNewline}, {Kind: OpIndent}, {Kind: OpType, Text: "b"},
		{Kind: OpSoftNewline}, {Kind: OpIndent}, {Kind: OpType, Text: "c"},
		{Kind: OpSoftNewline}, {Kind: OpOutdent}, {Kind: OpOutdent},
		{Kind: OpExitList}, {Kind: OpSoftNewline},
		{Kind: OpType, Text: "After"}, {Kind: OpSoftNewline},
	}, ops)
	assert.Equal(t, Count(ops, OpIndent), Count(ops, OpOutdent))
}

func TestSwitchBetweenListKinds(t *testing.T) {
	ops := Plan("- a\n\t- b\n1. first\n2. second\n- c")

	assert.Equal(t, []Op{
		{Kind: OpType, Text: "* a"},
		{Kind: OpSoftNewline}, {Kind: OpIndent}, {Kind: OpType, Text: "b"},
		// bulleted -> numbered: leave without a blank line
		{Kind: OpSoftNewline}, {Kind: OpOutdent}, {Kind: OpExitList},
		{Kind: OpType, Text: "1. first"},
		{Kind: OpSoftNewline}, {Kind: OpType, Text: "second"},
		// numbered -> bulleted
		{Kind: OpSoftNewline}, {Kind: OpExitList},
		{Kind: OpType, Text: "* c"},
	}, ops)
}

func TestBlankLinesSwallowedInLists(t *testing.T) {
	withBlank := Plan("- a\n\n- b")
	without := Plan("- a\n- b")
	assert.Equal(t, without, withBlank)

	numbered := Plan("1. a\n\n2. b")
	assert.Equal(t, Plan("1. a\n2. b"), numbered)
}

func TestPlainThenListThenPlain(t *testing.T) {
	ops := Plan("Release notes:\n- fix login\n- faster search\nThanks!")
	assert.Equal(t, []Op{
		{Kind: OpType, Text: "Release notes:"}, {Kind: OpSoftNewline},
		{Kind: OpType, Text: "* fix login"},
		{Kind: OpSoftNewline}, {Kind: OpType, Text: "faster search"},
		{Kind: OpSoftNewline}, {Kind: OpExitList}, {Kind: OpSoftNewline},
		{Kind: OpType, Text: "Thanks!"}, {Kind: OpSoftNewline},
	}, ops)
}

func TestCRLFInput(t *testing.T) {
	assert.Equal(t, Plan("a\n- b\n"), Plan("a\r\n- b\r\n"))
}

func TestDescribe(t *testing.T) {
	lines := Describe(Plan("- a\n\t- b"), DefaultKeymap())
	assert.Equal(t, []string{
		`type "* a"`,
		"press Shift+Enter",
		"press Tab",
		`type "b"`,
	}, lines)
}

func TestKeymapFromConfig(t *testing.T) {
	k := KeymapFromConfig(config.Keymap{ExitList: "Delete"})
	assert.Equal(t, "Delete", k.ExitList)
	assert.Equal(t, "Shift+Enter", k.SoftNewline)
	assert.Equal(t, "Delete", k.For(OpExitList))
	assert.Empty(t, k.For(OpType))
}

type recorder struct {
	events []string
	failOn string
}

func (r *recorder) Press(key string) error {
	if key == r.failOn {
		return errors.New("detached")
	}
	r.events = append(r.events, "press:"+key)
	return nil
}

func (r *recorder) Type(text string, delay time.Duration) error {
	r.events = append(r.events, "type:"+text+"@"+delay.String())
	return nil
}

func TestTypistRun(t *testing.T) {
	rec := &recorder{}
	ty := NewTypist(rec)
	ty.TypeDelay = 10 * time.Millisecond
	ty.AfterNewline = 100 * time.Millisecond
	ty.AfterIndent = 150 * time.Millisecond
	var pauses []time.Duration
	ty.sleep = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}

	require.NoError(t, ty.Clear(context.Background()))
	require.NoError(t, ty.Run(context.Background(), Plan("- a\n\t- b\nDone")))

	assert.Equal(t, []string{
		"press:ControlOrMeta+a", "press:Backspace",
		"type:* a@10ms",
		"press:Shift+Enter", "press:Tab", "type:b@10ms",
		"press:Shift+Enter", "press:Shift+Tab", "press:Backspace", "press:Shift+Enter",
		"type:Done@10ms", "press:Shift+Enter",
	}, rec.events)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond, 150 * time.Millisecond,
		100 * time.Millisecond, 150 * time.Millisecond, 100 * time.Millisecond,
		100 * time.Millisecond,
	}, pauses)
}

func TestTypistStopsOnError(t *testing.T) {
	rec := &recorder{failOn: "Tab"}
	ty := NewTypist(rec)
	err := ty.Run(context.Background(), Plan("- a\n\t- b"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "step 3 of"))
}

func TestTypistHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewTypist(&recorder{}).Run(ctx, Plan("a"))
	assert.ErrorIs(t, err, context.Canceled)
}
