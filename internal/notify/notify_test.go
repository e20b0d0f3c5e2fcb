package notify

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPerPlatform(t *testing.T) {
	mac := command("darwin", "Saved", "google-doc.json")
	require.NotNil(t, mac)
	assert.Equal(t, []string{"osascript", "-e", `display notification "google-doc.json" with title "Saved"`}, mac.Args)

	linux := command("linux", "Saved", "thread")
	require.NotNil(t, linux)
	assert.Equal(t, []string{"notify-send", "--app-name=Engineering Assistant", "Saved", "thread"}, linux.Args)

	win := command("windows", "Saved", "thread")
	require.NotNil(t, win)
	assert.Contains(t, win.Args[len(win.Args)-1], "CreateTextNode('thread')")

	assert.Nil(t, command("plan9", "a", "b"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "it’s a path: C:dir x", sanitize("it's a path: C:\\dir\nx"))
	assert.True(t, strings.HasSuffix(sanitize(strings.Repeat("a", 300)), "..."))
}

func TestSendSwallowsFailures(t *testing.T) {
	orig := run
	defer func() { run = orig }()

	var calls int
	run = func(*exec.Cmd) error { calls++; return errors.New("no notification daemon") }
	Send("title", "body")

	want := 0
	if command(runtime.GOOS, "", "") != nil {
		want = 1
	}
	assert.Equal(t, want, calls)
}
