// Package pages holds the page-object base shared by browser suites and the sample page objects built on it.
package pages

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-browsertest/browser"
)

const DefaultWait = 5 * time.Second

var ErrNoDriver = errors.New("no browser driver")

// Base gives page objects access to the shared driver, waits and assertions.
type Base struct {
	driver *browser.Driver
	log    log.Logger
}

// New wraps the session created for the current suite.
func New(driver *browser.Driver, logger log.Logger) *Base {
	if logger == nil {
		logger = log.Root()
	}
	return &Base{driver: driver, log: logger}
}

func (b *Base) Driver() *browser.Driver {
	return b.driver
}

func (b *Base) Log() log.Logger {
	return b.log
}

func (b *Base) session() (browser.Session, error) {
	if b.driver == nil || b.driver.Session == nil {
		return nil, ErrNoDriver
	}
	return b.driver, nil
}

func (b *Base) Open(ctx context.Context, url string) error {
	s, err := b.session()
	if err != nil {
		return err
	}
	return s.Get(ctx, url)
}

func (b *Base) Title(ctx context.Context) (string, error) {
	s, err := b.session()
	if err != nil {
		return "", err
	}
	return s.Title(ctx)
}

func (b *Base) WaitTitleIs(ctx context.Context, want string, timeout time.Duration) (string, error) {
	return wait(ctx, b, browser.TitleIs(want), timeout)
}

func (b *Base) WaitTitleContains(ctx context.Context, sub string, timeout time.Duration) (string, error) {
	return wait(ctx, b, browser.TitleContains(sub), timeout)
}

// WaitElement waits until loc matches at least one element.
func (b *Base) WaitElement(ctx context.Context, loc browser.Locator, timeout time.Duration) (browser.Element, error) {
	return wait(ctx, b, browser.ElementLocated(loc), timeout)
}

// WaitVisible waits until an element matching loc is displayed.
func (b *Base) WaitVisible(ctx context.Context, loc browser.Locator, timeout time.Duration) (browser.Element, error) {
	return wait(ctx, b, browser.ElementVisible(loc), timeout)
}

func wait[T any](ctx context.Context, b *Base, cond browser.Condition[T], timeout time.Duration) (T, error) {
	s, err := b.session()
	if err != nil {
		var zero T
		return zero, err
	}
	return browser.Wait(ctx, s, cond, timeout)
}

// Expect returns assertions bound to t that stop the test on failure.
func (b *Base) Expect(t require.TestingT) *require.Assertions {
	return require.New(t)
}

// Quit closes the browser. It is safe to call more than once and without a driver.
func (b *Base) Quit() error {
	if b.driver == nil {
		return nil
	}
	b.log.Info("Quitting WebDriver and closing the browser")
	if err := b.driver.Quit(); err != nil {
		return err
	}
	b.log.Info("Browser has been closed successfully")
	return nil
}
