package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/ethereum-optimism/optimism/op-service/testlog"
	"github.com/ethereum/go-ethereum/log"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct {
	versionErr error
	quitErr    error
	quits      int
}

func (s *stubSession) Get(context.Context, string) error { return nil }
func (s *stubSession) Title(context.Context) (string, error) { return "", nil }
func (s *stubSession) Version(context.Context) (string, error) { return "Stub/1.0", s.versionErr }
func (s *stubSession) FindElements(context.Context, Locator) ([]Element, error) {
	return nil, nil
}
func (s *stubSession) Quit() error {
	s.quits++
	return s.quitErr
}

func TestLaunchSpecHeadlessFlag(t *testing.T) {
	for _, name := range SupportedBrowsers() {
		for _, headless := range []bool{true, false} {
			spec, err := LaunchSpecFor(NewConfig(name, headless))
			require.NoError(t, err)
			assert.Equal(t, headless, spec.HasArg("headless"), "%s headless=%t", name, headless)
			assert.Equal(t, headless, spec.Headless)
			assert.True(t, spec.HasArg("no-sandbox"))
			assert.True(t, spec.HasArg("disable-gpu"))
			assert.Contains(t, spec.Args, "--window-size=1920,1080")
			assert.Equal(t, 1920, spec.WindowWidth)
			assert.Equal(t, 1080, spec.WindowHeight)
		}
	}
}

func TestLaunchSpecSwiftShader(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: Chrome, want: true},
		{name: Chromium, want: true},
		{name: Firefox, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := LaunchSpecFor(NewConfig(tt.name, true))
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.HasArg("enable-unsafe-swiftshader"))
		})
	}
}

func TestLaunchSpecUnsupported(t *testing.T) {
	_, err := LaunchSpecFor(NewConfig("safari", true))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedBrowser)
	var unsupported *UnsupportedBrowserError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "safari", unsupported.Name)
	assert.Equal(t, "invalid browser name: safari", err.Error())
}

func TestSupportedBrowsers(t *testing.T) {
	assert.Equal(t, []string{"chrome", "chromium", "firefox"}, SupportedBrowsers())
	assert.False(t, IsSupported("Chrome"))
}

func TestFactoryUnsupportedCreatesNoSession(t *testing.T) {
	launched := false
	f := NewFactory(testlog.Logger(t, log.LevelInfo)).WithLauncher("safari", func(context.Context, LaunchSpec) (Session, error) {
		launched = true
		return &stubSession{}, nil
	})

	d, err := f.NewDriver(context.Background(), NewConfig("safari", true))
	require.ErrorIs(t, err, ErrUnsupportedBrowser)
	assert.Nil(t, d)
	assert.False(t, launched)
}

func TestFactoryNewDriver(t *testing.T) {
	tests := []struct {
		name       string
		versionErr error
		launchErr  error
	}{
		{name: "version resolved"},
		{name: "version lookup failure is ignored", versionErr: errors.New("cdp: no such method")},
		{name: "launch failure propagates", launchErr: errors.New("chrome not found")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSession{versionErr: tt.versionErr}
			var gotSpec LaunchSpec
			f := NewFactory(testlog.Logger(t, log.LevelInfo)).WithLauncher(Chrome, func(_ context.Context, spec LaunchSpec) (Session, error) {
				gotSpec = spec
				if tt.launchErr != nil {
					return nil, tt.launchErr
				}
				return stub, nil
			})

			d, err := f.NewDriver(context.Background(), NewConfig(Chrome, false))
			if tt.launchErr != nil {
				require.ErrorIs(t, err, tt.launchErr)
				assert.Nil(t, d)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Chrome, d.BrowserName())
			assert.False(t, gotSpec.HasArg("headless"))
			require.NoError(t, d.Quit())
		})
	}
}

func TestDriverQuitIsIdempotent(t *testing.T) {
	stub := &stubSession{quitErr: errors.New("already gone")}
	d := NewDriverFromSession(Chrome, stub)

	require.Error(t, d.Quit())
	require.NoError(t, d.Quit())
	require.NoError(t, d.Quit())
	assert.Equal(t, 1, stub.quits)

	var nilDriver *Driver
	assert.NoError(t, nilDriver.Quit())
	assert.NoError(t, (&Driver{}).Quit())
	assert.Equal(t, "", nilDriver.BrowserName())
}

func TestBackendOptions(t *testing.T) {
	headed, err := LaunchSpecFor(NewConfig(Chromium, false))
	require.NoError(t, err)
	headless, err := LaunchSpecFor(NewConfig(Chromium, true))
	require.NoError(t, err)

	t.Run("rod launcher", func(t *testing.T) {
		l := rodLauncher(headed)
		_, hasHeadless := l.GetFlags(flags.Headless)
		assert.False(t, hasHeadless)
		assert.Equal(t, "1920,1080", l.Get(flags.Flag("window-size")))
		_, hasSandbox := l.GetFlags(flags.NoSandbox)
		assert.True(t, hasSandbox)

		l = rodLauncher(headless)
		_, hasHeadless = l.GetFlags(flags.Headless)
		assert.True(t, hasHeadless)
	})

	t.Run("chromedp allocator", func(t *testing.T) {
		assert.Len(t, chromedpOptions(headless), len(chromedp.DefaultExecAllocatorOptions)+len(headless.Args))
		assert.Len(t, chromedpOptions(headed), len(chromedp.DefaultExecAllocatorOptions)+len(headed.Args)+1)
	})

	t.Run("playwright options", func(t *testing.T) {
		ff, err := LaunchSpecFor(NewConfig(Firefox, true))
		require.NoError(t, err)
		opts := playwrightLaunchOptions(ff)
		require.NotNil(t, opts.Headless)
		assert.True(t, *opts.Headless)
		assert.NotContains(t, opts.Args, "--headless")
		assert.Contains(t, opts.Args, "--no-sandbox")
	})
}

func TestSplitArg(t *testing.T) {
	name, value := splitArg("--window-size=1920,1080")
	assert.Equal(t, "window-size", name)
	assert.Equal(t, "1920,1080", value)

	name, value = splitArg("--headless")
	assert.Equal(t, "headless", name)
	assert.Empty(t, value)
}
