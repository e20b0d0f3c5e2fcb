package browser

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

// Connection is an attached debugging connection.
type Connection interface {
	// NewPage opens a tab in the connection's browsing context.
	NewPage() (playwright.Page, error)
	// Version is the browser product string reported on attach.
	Version() string
	// Close drops the connection without stopping the browser.
	Close() error
}

// Manager creates sessions. The zero value is not usable; call NewManager.
type Manager struct {
	opts Options

	probe   func(ctx context.Context, port int, timeout time.Duration) (*VersionInfo, error)
	find    func(customPath string) (*BrowserExecutable, error)
	launch  func(exe *BrowserExecutable, args []string) (Process, error)
	connect func(ctx context.Context, endpoint string, timeout time.Duration) (Connection, error)
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewManager returns a Manager that probes, launches and attaches for real.
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:    opts.withDefaults(),
		probe:   ProbeVersion,
		find:    FindBrowserExecutable,
		launch:  LaunchDetached,
		connect: connectPlaywright,
		sleep:   Sleep,
	}
}

// Session is one browser process (owned or not) and zero or one connection.
type Session struct {
	mu sync.Mutex

	port    int
	version *VersionInfo
	proc    Process // nil unless this session launched the browser
	conn    Connection
}

// EnsureAvailable returns a session attached to a browser on the configured
// port. A browser that already answers the probe is attached to and never
// owned. Otherwise an executable is located and spawned detached with an
// isolated profile, the fixed settle delays elapse, and the new browser is
// attached to and owned by the session.
func (m *Manager) EnsureAvailable(ctx context.Context) (*Session, error) {
	log := logging.Component("browser")
	port := m.opts.Port

	v, err := m.probe(ctx, port, m.opts.ProbeTimeout)
	if err == nil {
		log.Info("attaching to running browser", "port", port, "browser", v.Browser)
		conn, err := m.attach(ctx)
		if err != nil {
			return nil, err
		}
		return &Session{port: port, version: v, conn: conn}, nil
	}
	log.Debug("no browser on debug port", "port", port, "error", err)

	exe, err := m.find(m.opts.ExecutablePath)
	if err != nil {
		return nil, err
	}

	args := buildLaunchArgs(port, m.opts.UserDataDir, m.opts.LaunchArgs)
	log.Info("launching browser", "kind", exe.Kind, "path", exe.Path, "port", port, "profile", m.opts.UserDataDir)
	proc, err := m.launch(exe, args)
	if err != nil {
		return nil, err
	}

	sess := &Session{port: port, proc: proc}
	for _, d := range []time.Duration{m.opts.LaunchSettle, m.opts.AttachSettle} {
		if err := m.sleep(ctx, d); err != nil {
			_ = sess.Terminate()
			return nil, err
		}
	}

	conn, err := m.attach(ctx)
	if err != nil {
		_ = sess.Terminate()
		return nil, err
	}
	sess.conn = conn
	sess.version = &VersionInfo{Browser: conn.Version()}
	log.Info("browser launched", "pid", proc.Pid(), "browser", conn.Version())
	return sess, nil
}

// Attach connects to the debugging endpoint on the configured port,
// reusing the browser's first context or creating one.
func (m *Manager) Attach(ctx context.Context) (Connection, error) {
	return m.attach(ctx)
}

func (m *Manager) attach(ctx context.Context) (Connection, error) {
	endpoint := endpointURL(m.opts.Port)
	conn, err := m.connect(ctx, endpoint, m.opts.ConnectTimeout)
	if err != nil {
		return nil, &errdefs.ConnectionError{Endpoint: endpoint, Err: err}
	}
	return conn, nil
}

// Port returns the debugging port.
func (s *Session) Port() int { return s.port }

// Owned reports whether the session launched, and may terminate, the
// browser process.
func (s *Session) Owned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil
}

// Connected reports whether the session holds a live connection.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Version returns what the browser reported about itself.
func (s *Session) Version() *VersionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// NewPage opens a new tab.
func (s *Session) NewPage(ctx context.Context) (*Page, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return nil, &errdefs.StateError{Msg: "no browser connection; call EnsureAvailable first"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pwPage, err := conn.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return newPage(pwPage), nil
}

// Disconnect closes the connection and leaves the browser running.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// Terminate disconnects and, only if this session launched the browser,
// kills the browser process.
func (s *Session) Terminate() error {
	err := s.Disconnect()

	s.mu.Lock()
	proc := s.proc
	s.proc = nil
	s.mu.Unlock()

	if proc != nil {
		logging.Component("browser").Info("stopping launched browser", "pid", proc.Pid())
		if kerr := proc.Kill(); kerr != nil && err == nil {
			err = fmt.Errorf("kill browser: %w", kerr)
		}
	}
	return err
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var (
	// Playwright driver (singleton)
	pwOnce     sync.Once
	pwInstance *playwright.Playwright
	pwErr      error
)

// getPlaywright returns the singleton Playwright driver. Browsers are never
// downloaded: the assistant only attaches over CDP.
func getPlaywright() (*playwright.Playwright, error) {
	pwOnce.Do(func() {
		opts := &playwright.RunOptions{
			SkipInstallBrowsers: true,
			Verbose:             false,
			Stdout:              io.Discard,
			Stderr:              io.Discard,
		}
		if err := playwright.Install(opts); err != nil {
			pwErr = fmt.Errorf("failed to install playwright driver: %w", err)
			return
		}

		pw, err := playwright.Run(opts)
		if err != nil {
			pwErr = fmt.Errorf("failed to start playwright: %w", err)
			return
		}
		pwInstance = pw
	})

	return pwInstance, pwErr
}

// Shutdown stops the Playwright driver if it was started.
func Shutdown() {
	if pwInstance != nil {
		_ = pwInstance.Stop()
	}
}

type pwConnection struct {
	browser playwright.Browser
	context playwright.BrowserContext
}

func connectPlaywright(ctx context.Context, endpoint string, timeout time.Duration) (Connection, error) {
	pw, err := getPlaywright()
	if err != nil {
		return nil, err
	}
	timeout = boundTimeout(ctx, timeout)

	b, err := pw.Chromium.ConnectOverCDP(endpoint, playwright.BrowserTypeConnectOverCDPOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, errdefs.Classify("connect over CDP", timeout, err)
	}

	// Pages must live in the user's default context to see its logins.
	var bctx playwright.BrowserContext
	if contexts := b.Contexts(); len(contexts) > 0 {
		bctx = contexts[0]
	} else {
		bctx, err = b.NewContext()
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to create browser context: %w", err)
		}
	}
	return &pwConnection{browser: b, context: bctx}, nil
}

func (c *pwConnection) NewPage() (playwright.Page, error) {
	return c.context.NewPage()
}

func (c *pwConnection) Version() string {
	return c.browser.Version()
}

func (c *pwConnection) Close() error {
	return c.browser.Close()
}

func newPageID() string {
	return fmt.Sprintf("page-%s", uuid.New().String()[:8])
}
