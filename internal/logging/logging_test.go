package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetupRoutesToWriter(t *testing.T) {
	var buf bytes.Buffer
	Setup(Options{Writer: &buf, NoColor: true})
	t.Cleanup(func() { Setup(Options{}) })

	log := Component("browser")
	log.Info("attached", "version", "Edg/131")
	log.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "attached") || !strings.Contains(out, "version=Edg/131") {
		t.Errorf("expected info line, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered without verbose, got %q", out)
	}
}

func TestVerboseShowsDebug(t *testing.T) {
	var buf bytes.Buffer
	Setup(Options{Writer: &buf, NoColor: true, Verbose: true})
	t.Cleanup(func() { Setup(Options{}) })

	Component("browser").Debug("probe", "port", 9222)
	out := buf.String()
	if !strings.Contains(out, "component=browser") || !strings.Contains(out, "port=9222") {
		t.Errorf("expected component attr, got %q", out)
	}
}

func TestSetupResetsLevel(t *testing.T) {
	var buf bytes.Buffer
	Setup(Options{Writer: &buf, NoColor: true, Verbose: true})
	Setup(Options{Writer: &buf, NoColor: true})
	t.Cleanup(func() { Setup(Options{}) })

	Component("cli").Debug("quiet")
	if buf.Len() != 0 {
		t.Errorf("expected debug suppressed after non-verbose setup, got %q", buf.String())
	}
}
