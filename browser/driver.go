package browser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

const (
	Chrome   = "chrome"
	Chromium = "chromium"
	Firefox  = "firefox"

	WindowWidth  = 1920
	WindowHeight = 1080
)

var ErrUnsupportedBrowser = errors.New("unsupported browser")

// UnsupportedBrowserError is returned when no backend is registered for a browser name.
type UnsupportedBrowserError struct {
	Name string
}

func (e *UnsupportedBrowserError) Error() string {
	return fmt.Sprintf("invalid browser name: %s", e.Name)
}

func (e *UnsupportedBrowserError) Is(target error) bool {
	return target == ErrUnsupportedBrowser
}

// LaunchSpec is the fixed set of launch options derived from a Config.
type LaunchSpec struct {
	Browser      string
	Headless     bool
	Args         []string // command-line switches in --name[=value] form
	WindowWidth  int
	WindowHeight int
}

// HasArg reports whether the spec carries the switch name, with or without a value.
func (s LaunchSpec) HasArg(name string) bool {
	for _, arg := range s.Args {
		n, _ := splitArg(arg)
		if n == name {
			return true
		}
	}
	return false
}

// LaunchSpecFor builds the launch options for cfg. The baseline is not tunable per call.
func LaunchSpecFor(cfg Config) (LaunchSpec, error) {
	name := cfg.BrowserName()
	if !IsSupported(name) {
		return LaunchSpec{}, &UnsupportedBrowserError{Name: name}
	}
	spec := LaunchSpec{
		Browser:      name,
		Headless:     cfg.IsHeadless(),
		WindowWidth:  WindowWidth,
		WindowHeight: WindowHeight,
	}
	if spec.Headless {
		spec.Args = append(spec.Args, "--headless")
	}
	spec.Args = append(spec.Args,
		"--no-sandbox",
		"--disable-gpu",
		fmt.Sprintf("--window-size=%d,%d", WindowWidth, WindowHeight),
	)
	if name == Chrome || name == Chromium {
		spec.Args = append(spec.Args, "--enable-unsafe-swiftshader")
	}
	return spec, nil
}

// splitArg turns "--name=value" into ("name", "value").
func splitArg(arg string) (string, string) {
	arg = strings.TrimLeft(arg, "-")
	name, value, _ := strings.Cut(arg, "=")
	return name, value
}

// Launcher starts a browser described by spec.
type Launcher func(ctx context.Context, spec LaunchSpec) (Session, error)

var defaultLaunchers = map[string]Launcher{
	Chrome:   launchChromedp,
	Chromium: launchRod,
	Firefox:  launchPlaywright,
}

// IsSupported reports whether name has a built-in backend.
func IsSupported(name string) bool {
	_, ok := defaultLaunchers[name]
	return ok
}

// SupportedBrowsers lists the browser names with a built-in backend.
func SupportedBrowsers() []string {
	names := make([]string, 0, len(defaultLaunchers))
	for name := range defaultLaunchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Factory creates Drivers. Launchers can be replaced for tests.
type Factory struct {
	log       log.Logger
	launchers map[string]Launcher
}

func NewFactory(logger log.Logger) *Factory {
	if logger == nil {
		logger = log.Root()
	}
	launchers := make(map[string]Launcher, len(defaultLaunchers))
	for name, l := range defaultLaunchers {
		launchers[name] = l
	}
	return &Factory{log: logger, launchers: launchers}
}

// WithLauncher replaces the backend for a supported browser name.
func (f *Factory) WithLauncher(name string, l Launcher) *Factory {
	f.launchers[name] = l
	return f
}

// NewDriver creates a session for cfg using the default backends.
func NewDriver(ctx context.Context, cfg Config, logger log.Logger) (*Driver, error) {
	return NewFactory(logger).NewDriver(ctx, cfg)
}

// NewDriver launches the configured browser. The version lookup is best-effort.
func (f *Factory) NewDriver(ctx context.Context, cfg Config) (*Driver, error) {
	f.log.Info("Creating WebDriver for browser", "browser", cfg.BrowserName(), "headless", cfg.IsHeadless())

	spec, err := LaunchSpecFor(cfg)
	if err != nil {
		return nil, err
	}
	launch, ok := f.launchers[spec.Browser]
	if !ok {
		return nil, &UnsupportedBrowserError{Name: spec.Browser}
	}

	session, err := launch(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", spec.Browser, err)
	}

	if version, err := session.Version(ctx); err != nil {
		f.log.Warn("Error retrieving browser version", "browser", spec.Browser, "err", err)
	} else {
		f.log.Info("Browser version", "browser", spec.Browser, "version", version)
	}

	return &Driver{Session: session, name: spec.Browser}, nil
}

// Driver owns exactly one Session and releases it at most once.
type Driver struct {
	Session
	name string

	quitOnce sync.Once
}

// NewDriverFromSession wraps an existing session.
func NewDriverFromSession(name string, s Session) *Driver {
	return &Driver{Session: s, name: name}
}

func (d *Driver) BrowserName() string {
	if d == nil {
		return ""
	}
	return d.name
}

// Quit closes the browser. Calls after the first, and calls on a nil Driver, do nothing.
func (d *Driver) Quit() error {
	if d == nil || d.Session == nil {
		return nil
	}
	var err error
	d.quitOnce.Do(func() {
		err = d.Session.Quit()
	})
	return err
}
