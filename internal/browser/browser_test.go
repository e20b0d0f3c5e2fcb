package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/playwright-community/playwright-go"

	"github.com/ardiustech/eng-ai-assistant/internal/config"
	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

type fakeProcess struct {
	pid    int
	killed int
}

func (p *fakeProcess) Pid() int    { return p.pid }
func (p *fakeProcess) Kill() error { p.killed++; return nil }

type fakeConn struct {
	closed int
}

func (c *fakeConn) NewPage() (playwright.Page, error) { return nil, errors.New("no pages in tests") }
func (c *fakeConn) Version() string                   { return "131.0.0.0" }
func (c *fakeConn) Close() error                      { c.closed++; return nil }

type harness struct {
	mgr      *Manager
	spawns   int
	proc     *fakeProcess
	conn     *fakeConn
	sleeps   []time.Duration
	args     []string
	probeErr error
	connErr  error
}

func newHarness(live bool) *harness {
	h := &harness{proc: &fakeProcess{pid: 4242}, conn: &fakeConn{}}
	if !live {
		h.probeErr = errors.New("connection refused")
	}
	h.mgr = &Manager{
		opts: Options{Port: 9222, UserDataDir: "/tmp/profile", LaunchArgs: []string{"--no-default-browser-check"}}.withDefaults(),
		probe: func(ctx context.Context, port int, timeout time.Duration) (*VersionInfo, error) {
			if h.probeErr != nil {
				return nil, h.probeErr
			}
			return &VersionInfo{Browser: "Edg/131.0.0.0"}, nil
		},
		find: func(string) (*BrowserExecutable, error) {
			return &BrowserExecutable{Kind: BrowserEdge, Path: "/usr/bin/microsoft-edge"}, nil
		},
		launch: func(exe *BrowserExecutable, args []string) (Process, error) {
			h.spawns++
			h.args = args
			return h.proc, nil
		},
		connect: func(ctx context.Context, endpoint string, timeout time.Duration) (Connection, error) {
			if h.connErr != nil {
				return nil, h.connErr
			}
			return h.conn, nil
		},
		sleep: func(ctx context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return nil
		},
	}
	return h
}

func TestEnsureAvailableAttachesToLiveBrowser(t *testing.T) {
	h := newHarness(true)

	sess, err := h.mgr.EnsureAvailable(context.Background())
	if err != nil {
		t.Fatalf("EnsureAvailable: %v", err)
	}
	if h.spawns != 0 {
		t.Errorf("expected zero spawns, got %d", h.spawns)
	}
	if sess.Owned() {
		t.Error("session attached to a running browser must not own it")
	}
	if len(h.sleeps) != 0 {
		t.Errorf("no settle delay expected when attaching, got %v", h.sleeps)
	}

	if err := sess.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if h.proc.killed != 0 {
		t.Error("Terminate on a non-owning session must not kill anything")
	}
	if h.conn.closed != 1 {
		t.Errorf("expected connection closed once, got %d", h.conn.closed)
	}
}

func TestEnsureAvailableLaunchesWhenDead(t *testing.T) {
	h := newHarness(false)

	sess, err := h.mgr.EnsureAvailable(context.Background())
	if err != nil {
		t.Fatalf("EnsureAvailable: %v", err)
	}
	if h.spawns != 1 {
		t.Fatalf("expected one spawn, got %d", h.spawns)
	}
	if !sess.Owned() {
		t.Fatal("launched session must own the process")
	}
	if len(h.sleeps) != 2 || h.sleeps[0] != DefaultSettle || h.sleeps[1] != DefaultSettle {
		t.Errorf("expected two fixed settle delays, got %v", h.sleeps)
	}

	want := []string{"--remote-debugging-port=9222", "--user-data-dir=/tmp/profile", "--no-default-browser-check"}
	if strings.Join(h.args, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v, want %v", h.args, want)
	}

	if err := sess.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if h.proc.killed != 1 {
		t.Errorf("expected process killed once, got %d", h.proc.killed)
	}
	// Second Terminate is a no-op.
	_ = sess.Terminate()
	if h.proc.killed != 1 {
		t.Errorf("expected no second kill, got %d", h.proc.killed)
	}
}

func TestEnsureAvailableAttachFailure(t *testing.T) {
	h := newHarness(true)
	h.connErr = errors.New("handshake failed")

	_, err := h.mgr.EnsureAvailable(context.Background())
	var ce *errdefs.ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if h.spawns != 0 {
		t.Error("a live endpoint that refuses attach must not trigger a launch")
	}
}

func TestEnsureAvailableLaunchedButAttachFails(t *testing.T) {
	h := newHarness(false)
	h.connErr = errors.New("handshake failed")

	if _, err := h.mgr.EnsureAvailable(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if h.proc.killed != 1 {
		t.Error("owned process should be cleaned up when attach fails")
	}
}

func TestEnsureAvailableNoExecutable(t *testing.T) {
	h := newHarness(false)
	h.mgr.find = func(string) (*BrowserExecutable, error) {
		return nil, &errdefs.NotFoundError{Kind: "executable", Name: "edge"}
	}
	_, err := h.mgr.EnsureAvailable(context.Background())
	var nf *errdefs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestNewPageWithoutConnection(t *testing.T) {
	sess := &Session{port: 9222}
	_, err := sess.NewPage(context.Background())
	var se *errdefs.StateError
	if !errors.As(err, &se) {
		t.Fatalf("expected StateError, got %v", err)
	}
}

func TestDisconnectKeepsProcess(t *testing.T) {
	h := newHarness(false)
	sess, err := h.mgr.EnsureAvailable(context.Background())
	if err != nil {
		t.Fatalf("EnsureAvailable: %v", err)
	}
	if err := sess.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if sess.Connected() {
		t.Error("expected no connection after Disconnect")
	}
	if h.proc.killed != 0 {
		t.Error("Disconnect must not kill the browser")
	}
	if !sess.Owned() {
		t.Error("Disconnect must not drop process ownership")
	}
}

func portOf(t *testing.T, srv *httptest.Server) int {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return port
}

func TestProbeVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"Browser":"Edg/131.0.2903.86","Protocol-Version":"1.3","webSocketDebuggerUrl":"ws://localhost/devtools/browser/abc"}`)
	}))
	defer srv.Close()

	v, err := ProbeVersion(context.Background(), portOf(t, srv), time.Second)
	if err != nil {
		t.Fatalf("ProbeVersion: %v", err)
	}
	if v.Browser != "Edg/131.0.2903.86" || v.WebSocketDebuggerURL == "" {
		t.Errorf("unexpected version: %+v", v)
	}
}

func TestProbeVersionZeroTimeoutUsesDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Browser":"Chrome/131.0"}`)
	}))
	defer srv.Close()

	if _, err := ProbeVersion(context.Background(), portOf(t, srv), 0); err != nil {
		t.Fatalf("zero timeout should fall back to the default, got %v", err)
	}
	opts := OptionsFromConfig(config.Browser{ProbeTimeout: -time.Second})
	if opts.ProbeTimeout != DefaultProbeTimeout || opts.Port != DefaultCDPPort {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}

func TestProbeVersionRejectsNonBrowser(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"missing Browser", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"foo":"bar"}`) }},
		{"not json", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `<html></html>`) }},
		{"500", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			if IsReachable(context.Background(), portOf(t, srv), time.Second) {
				t.Error("expected unreachable")
			}
		})
	}
}

func TestFindBrowserExecutableCustomPath(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "msedge")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	got, err := FindBrowserExecutable(exe)
	if err != nil {
		t.Fatalf("FindBrowserExecutable: %v", err)
	}
	if got.Kind != BrowserCustom || got.Path != exe {
		t.Errorf("unexpected executable: %+v", got)
	}

	_, err = FindBrowserExecutable(exe + "-missing")
	var nf *errdefs.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestCandidatesPreferEdge(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows"} {
		c := candidates(goos)
		if len(c) == 0 || c[0].kind != BrowserEdge {
			t.Errorf("%s: expected Edge first, got %+v", goos, c)
		}
	}
}

func TestRouteRules(t *testing.T) {
	rules := RouteRules{
		Block:      []string{"slack://", "msteams://", "intent://", "app-store-link"},
		HeaderHost: "slack.com",
		Headers:    map[string]string{"User-Agent": "ua"},
	}
	tests := []struct {
		url  string
		want routeAction
	}{
		{"slack://channel?id=C1", routeAbort},
		{"https://apps.apple.com/app-store-link/slack", routeAbort},
		{"https://acme.slack.com/archives/C1/p2", routeRewrite},
		{"https://docs.google.com/document/d/1", routeContinue},
	}
	for _, tt := range tests {
		if got := rules.decide(tt.url); got != tt.want {
			t.Errorf("decide(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestBoundTimeout(t *testing.T) {
	if got := boundTimeout(context.Background(), 0); got != DefaultActionTimeout {
		t.Errorf("zero timeout should default, got %s", got)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if got := boundTimeout(ctx, time.Minute); got > 50*time.Millisecond {
		t.Errorf("expected timeout clamped to deadline, got %s", got)
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPageTabsFiltersPages(t *testing.T) {
	infos := []*target.Info{
		{TargetID: "A", Type: "page", Title: "Inbox", URL: "https://mail.example"},
		{TargetID: "B", Type: "service_worker", URL: "https://sw.example"},
		nil,
		{TargetID: "C", Type: "page", Title: "Doc", URL: "https://docs.google.com/document/d/1", Attached: true},
	}
	tabs := pageTabs(infos)
	if len(tabs) != 2 || tabs[0].ID != "A" || !tabs[1].Attached {
		t.Errorf("unexpected tabs: %+v", tabs)
	}
}

func TestCDPParams(t *testing.T) {
	p, err := cdpParams(map[string]string{"userAgent": "ua"})
	if err != nil {
		t.Fatal(err)
	}
	if p["userAgent"] != "ua" {
		t.Errorf("unexpected params: %v", p)
	}
}

func TestAuditCDP(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup(logging.Options{Writer: &buf, NoColor: true})
	t.Cleanup(func() { logging.Setup(logging.Options{}) })

	auditCDP("page-0123456789abcdef", "Emulation.setUserAgentOverride")
	auditCDP("page-0123456789abcdef", "Page.navigate")

	out := buf.String()
	if !strings.Contains(out, "cdp_sensitive_command") || !strings.Contains(out, "page=page-01234567") {
		t.Errorf("expected warn line for the user agent override, got %q", out)
	}
	if strings.Contains(out, "Page.navigate") {
		t.Errorf("other methods log at debug only, got %q", out)
	}
}
