// Package compose turns a formatted plain-text message into the keystrokes
// that reproduce its bullet and numbered lists in a rich-text composer.
//
// The composer auto-formats: typing "* " starts a bulleted list, typing
// "1. " starts a numbered one, Tab and Shift+Tab change nesting one level
// at a time, and deleting the marker of an empty item leaves the list.
// Plan tracks where the composer's caret is (a Cursor) and emits the
// minimal Op sequence for each input line.
package compose

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode is the list mode the composer is in.
type Mode int

const (
	ModePlain Mode = iota
	ModeBulleted
	ModeNumbered
)

func (m Mode) String() string {
	switch m {
	case ModeBulleted:
		return "bulleted"
	case ModeNumbered:
		return "numbered"
	default:
		return "plain"
	}
}

// Cursor is the composer state between lines. Depth is the bullet nesting
// level and is always zero outside bulleted mode.
type Cursor struct {
	Mode  Mode
	Depth int
}

// OpKind is one primitive composer action.
type OpKind int

const (
	OpType OpKind = iota
	OpSoftNewline
	OpIndent
	OpOutdent
	OpExitList
)

// Op is one step of a posting plan. Text is set only for OpType.
type Op struct {
	Kind OpKind
	Text string
}

// LineKind classifies an input line.
type LineKind int

const (
	LineBlank LineKind = iota
	LinePlain
	LineBullet
	LineNumbered
)

// Line is a parsed input line. For bullets Text excludes the marker; for
// numbered lines Raw keeps the "<n>. " prefix.
type Line struct {
	Kind  LineKind
	Depth int
	Text  string
	Raw   string
}

var numberedRe = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)

// ParseLine classifies one line. Depth is the count of leading tabs; any
// other surrounding whitespace is dropped before the marker is matched.
func ParseLine(s string) Line {
	depth := 0
	for depth < len(s) && s[depth] == '\t' {
		depth++
	}
	body := strings.TrimSpace(s[depth:])

	switch {
	case body == "":
		return Line{Kind: LineBlank}
	case strings.HasPrefix(body, "- "):
		return Line{Kind: LineBullet, Depth: depth, Text: strings.TrimSpace(body[2:]), Raw: body}
	case strings.HasPrefix(body, "• "):
		return Line{Kind: LineBullet, Depth: depth, Text: strings.TrimSpace(body[len("• "):]), Raw: body}
	}
	if m := numberedRe.FindStringSubmatch(body); m != nil {
		return Line{Kind: LineNumbered, Depth: depth, Text: m[2], Raw: body}
	}
	return Line{Kind: LinePlain, Depth: depth, Text: body, Raw: body}
}

// Plan returns the ops that type text into an empty composer.
func Plan(text string) []Op {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")

	var p planner
	for _, raw := range strings.Split(text, "\n") {
		p.line(ParseLine(raw))
	}
	return p.ops
}

type planner struct {
	cur Cursor
	ops []Op
}

func (p *planner) emit(kind OpKind, n int) {
	for i := 0; i < n; i++ {
		p.ops = append(p.ops, Op{Kind: kind})
	}
}

func (p *planner) typ(text string) {
	if text == "" {
		return
	}
	p.ops = append(p.ops, Op{Kind: OpType, Text: text})
}

func (p *planner) line(l Line) {
	switch l.Kind {
	case LineBlank:
		if p.cur.Mode == ModePlain {
			p.emit(OpSoftNewline, 1)
		}
	case LinePlain:
		if p.cur.Mode != ModePlain {
			p.leaveList(true)
		}
		p.typ(l.Text)
		p.emit(OpSoftNewline, 1)
	case LineBullet:
		switch p.cur.Mode {
		case ModeBulleted:
			p.emit(OpSoftNewline, 1)
			p.moveDepth(l.Depth)
			p.typ(l.Text)
			return
		case ModeNumbered:
			p.leaveList(false)
		}
		p.startBullets(l)
	case LineNumbered:
		switch p.cur.Mode {
		case ModeNumbered:
			p.emit(OpSoftNewline, 1)
			p.typ(l.Text)
			return
		case ModeBulleted:
			p.leaveList(false)
		}
		// Typing the number itself makes the composer start a list.
		p.typ(l.Raw)
		p.cur = Cursor{Mode: ModeNumbered}
	}
}

// startBullets begins a bulleted list on an empty line.
func (p *planner) startBullets(l Line) {
	if l.Depth == 0 {
		p.typ("* " + l.Text)
	} else {
		p.typ("* ")
		p.emit(OpIndent, l.Depth)
		p.typ(l.Text)
	}
	p.cur = Cursor{Mode: ModeBulleted, Depth: l.Depth}
}

// moveDepth issues one indent or outdent per level of difference.
func (p *planner) moveDepth(depth int) {
	switch {
	case depth > p.cur.Depth:
		p.emit(OpIndent, depth-p.cur.Depth)
	case depth < p.cur.Depth:
		p.emit(OpOutdent, p.cur.Depth-depth)
	}
	p.cur.Depth = depth
}

// leaveList exits the current list onto an empty plain line. Bulleted
// lists are first walked back to the top level; numbered lists are flat.
// With separate, a blank line follows the list.
func (p *planner) leaveList(separate bool) {
	p.emit(OpSoftNewline, 1)
	if p.cur.Mode == ModeBulleted {
		p.emit(OpOutdent, p.cur.Depth)
	}
	p.emit(OpExitList, 1)
	if separate {
		p.emit(OpSoftNewline, 1)
	}
	p.cur = Cursor{Mode: ModePlain}
}

// Count returns how many ops of kind appear in ops.
func Count(ops []Op, kind OpKind) int {
	n := 0
	for _, op := range ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Describe renders ops as one human-readable step per line, naming keys as
// the keymap binds them.
func Describe(ops []Op, keys Keymap) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case OpType:
			out = append(out, fmt.Sprintf("type %q", op.Text))
		default:
			out = append(out, "press "+keys.For(op.Kind))
		}
	}
	return out
}
