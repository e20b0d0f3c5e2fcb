package browser

import (
	"time"

	"github.com/ardiustech/eng-ai-assistant/internal/config"
)

// Options is the resolved browser configuration for one Manager.
type Options struct {
	Port           int
	ExecutablePath string
	UserDataDir    string
	ProbeTimeout   time.Duration
	ConnectTimeout time.Duration

	// LaunchSettle and AttachSettle are fixed waits applied after spawning
	// a browser: the first lets the process open its debugging port, the
	// second lets its default context come up before attaching.
	LaunchSettle time.Duration
	AttachSettle time.Duration

	LaunchArgs []string
}

// OptionsFromConfig resolves Options from the browser config section,
// filling zero values with package defaults.
func OptionsFromConfig(c config.Browser) Options {
	opts := Options{
		Port:           c.Port,
		ExecutablePath: c.Executable,
		UserDataDir:    c.ProfileDir,
		ProbeTimeout:   c.ProbeTimeout,
		ConnectTimeout: c.ConnectTimeout,
		LaunchSettle:   c.LaunchSettle,
		AttachSettle:   c.AttachSettle,
		LaunchArgs:     c.LaunchArgs,
	}
	return opts.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.Port <= 0 {
		o.Port = DefaultCDPPort
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = DefaultProbeTimeout
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultActionTimeout
	}
	if o.LaunchSettle <= 0 {
		o.LaunchSettle = DefaultSettle
	}
	if o.AttachSettle <= 0 {
		o.AttachSettle = DefaultSettle
	}
	return o
}
