package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// playwrightSession drives Firefox through the Playwright driver.
type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

func playwrightLaunchOptions(spec LaunchSpec) playwright.BrowserTypeLaunchOptions {
	args := make([]string, 0, len(spec.Args))
	for _, arg := range spec.Args {
		// headless is a launch option, not a switch, for Playwright
		if name, _ := splitArg(arg); name == "headless" {
			continue
		}
		args = append(args, arg)
	}
	return playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(spec.Headless),
		Args:     args,
	}
}

func launchPlaywright(ctx context.Context, spec LaunchSpec) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	b, err := pw.Firefox.Launch(playwrightLaunchOptions(spec))
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch firefox: %w", err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: spec.WindowWidth, Height: spec.WindowHeight},
	})
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &playwrightSession{pw: pw, browser: b, page: page}, nil
}

// timeoutMillis converts a context deadline into a Playwright timeout; nil keeps the page default.
func timeoutMillis(ctx context.Context) *float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	ms := float64(time.Until(deadline).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return playwright.Float(ms)
}

func (s *playwrightSession) Get(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   timeoutMillis(ctx),
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	return err
}

func (s *playwrightSession) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Title()
}

func (s *playwrightSession) FindElements(ctx context.Context, loc Locator) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	selector := "css=" + loc.Query
	if loc.Strategy == StrategyXPath {
		selector = "xpath=" + loc.Query
	}
	handles, err := s.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	els := make([]Element, 0, len(handles))
	for _, h := range handles {
		els = append(els, playwrightElement{h: h})
	}
	return els, nil
}

func (s *playwrightSession) Version(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.browser.Version(), nil
}

func (s *playwrightSession) Quit() error {
	return errors.Join(s.browser.Close(), s.pw.Stop())
}

type playwrightElement struct {
	h playwright.ElementHandle
}

func (e playwrightElement) Displayed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return e.h.IsVisible()
}

func (e playwrightElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.h.InnerText()
}

func (e playwrightElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.h.Click(playwright.ElementHandleClickOptions{Timeout: timeoutMillis(ctx)})
}

func (e playwrightElement) SendKeys(ctx context.Context, keys string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.h.Type(keys, playwright.ElementHandleTypeOptions{Timeout: timeoutMillis(ctx)})
}
