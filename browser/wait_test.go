package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-browsertest/browser"
	"github.com/ethereum-optimism/infra/op-browsertest/browser/fakebrowser"
)

const homeURL = "https://example.test"

func newSession(t *testing.T, page *fakebrowser.Page) *fakebrowser.Session {
	s := fakebrowser.NewSession("Fake/1.0").AddPage(homeURL, page)
	require.NoError(t, s.Get(context.Background(), homeURL))
	return s
}

func TestWaitTitle(t *testing.T) {
	s := newSession(t, &fakebrowser.Page{Title: "Example Domain"})
	ctx := context.Background()

	title, err := browser.Wait(ctx, s, browser.TitleIs("Example Domain"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Example Domain", title)

	title, err = browser.Wait(ctx, s, browser.TitleContains("Example"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Example Domain", title)
}

func TestWaitTimesOut(t *testing.T) {
	s := newSession(t, &fakebrowser.Page{Title: "Loading"})

	start := time.Now()
	_, err := browser.WaitWithInterval(context.Background(), s, browser.TitleIs("Done"), 50*time.Millisecond, 10*time.Millisecond)
	require.ErrorIs(t, err, browser.ErrWaitTimeout)
	assert.Contains(t, err.Error(), `title to be "Done"`)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitPollsUntilConditionHolds(t *testing.T) {
	s := newSession(t, &fakebrowser.Page{Title: "Loading"})
	go func() {
		time.Sleep(30 * time.Millisecond)
		s.Update(func(p *fakebrowser.Page) { p.Title = "Ready" })
	}()

	title, err := browser.WaitWithInterval(context.Background(), s, browser.TitleIs("Ready"), time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "Ready", title)
}

func TestWaitPropagatesErrors(t *testing.T) {
	s := fakebrowser.NewSession("Fake/1.0")

	_, err := browser.Wait(context.Background(), s, browser.TitleIs("x"), time.Second)
	require.ErrorIs(t, err, fakebrowser.ErrNoPage)
	assert.NotErrorIs(t, err, browser.ErrWaitTimeout)
}

func TestWaitParentCancelled(t *testing.T) {
	s := newSession(t, &fakebrowser.Page{Title: "Loading"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := browser.Wait(ctx, s, browser.TitleIs("Done"), time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaitElements(t *testing.T) {
	signIn := browser.ByLinkText("Sign in")
	hidden := &fakebrowser.Element{Visible: false, Content: "Sign in"}
	shown := &fakebrowser.Element{Visible: true, Content: "Sign in"}
	s := newSession(t, &fakebrowser.Page{
		Title:    "GitHub",
		Elements: map[string][]*fakebrowser.Element{signIn.Query: {hidden, shown}},
	})
	ctx := context.Background()

	el, err := browser.Wait(ctx, s, browser.ElementLocated(signIn), time.Second)
	require.NoError(t, err)
	assert.Same(t, hidden, el)

	el, err = browser.Wait(ctx, s, browser.ElementVisible(signIn), time.Second)
	require.NoError(t, err)
	assert.Same(t, shown, el)

	_, err = browser.WaitWithInterval(ctx, s, browser.ElementLocated(browser.ByName("q")), 20*time.Millisecond, 5*time.Millisecond)
	require.True(t, errors.Is(err, browser.ErrWaitTimeout))
	assert.Contains(t, err.Error(), `element located by name "q"`)
}
