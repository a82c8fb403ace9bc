package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// rodSession drives a launcher-managed Chromium through go-rod.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func rodLauncher(spec LaunchSpec) *launcher.Launcher {
	l := launcher.New().Headless(spec.Headless)
	for _, arg := range spec.Args {
		name, value := splitArg(arg)
		if name == "headless" {
			continue
		}
		if value == "" {
			l = l.Set(flags.Flag(name))
		} else {
			l = l.Set(flags.Flag(name), value)
		}
	}
	return l
}

func launchRod(ctx context.Context, spec LaunchSpec) (Session, error) {
	l := rodLauncher(spec)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to chromium: %w", err)
	}

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &rodSession{launcher: l, browser: b, page: page.Context(context.WithoutCancel(ctx))}, nil
}

func (s *rodSession) Get(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (s *rodSession) Title(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (s *rodSession) FindElements(ctx context.Context, loc Locator) ([]Element, error) {
	p := s.page.Context(ctx)
	var (
		found rod.Elements
		err   error
	)
	if loc.Strategy == StrategyXPath {
		found, err = p.ElementsX(loc.Query)
	} else {
		found, err = p.Elements(loc.Query)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	els := make([]Element, 0, len(found))
	for _, el := range found {
		els = append(els, rodElement{el: el})
	}
	return els, nil
}

func (s *rodSession) Version(ctx context.Context) (string, error) {
	res, err := proto.BrowserGetVersion{}.Call(s.browser.Context(ctx))
	if err != nil {
		return "", err
	}
	return res.Product, nil
}

func (s *rodSession) Quit() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("failed to close chromium: %w", err)
	}
	return nil
}

type rodElement struct {
	el *rod.Element
}

func (e rodElement) Displayed(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

func (e rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e rodElement) SendKeys(ctx context.Context, keys string) error {
	return e.el.Context(ctx).Input(keys)
}
