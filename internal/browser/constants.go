// Package browser attaches to, or launches, a Chromium-family browser with
// remote debugging enabled and drives its pages through Playwright.
//
// A Session owns at most one connection. It owns the browser process only
// when it launched it; closing pages or disconnecting never stops a browser
// the user started.
package browser

import "time"

const (
	// DefaultCDPPort is the default Chrome DevTools Protocol port.
	DefaultCDPPort = 9222

	// DefaultProbeTimeout bounds the /json/version liveness probe.
	DefaultProbeTimeout = 2 * time.Second

	// DefaultSettle is how long to wait after launching before attaching.
	DefaultSettle = 3 * time.Second

	// DefaultActionTimeout applies to navigation and waits without an
	// explicit timeout.
	DefaultActionTimeout = 30 * time.Second
)
