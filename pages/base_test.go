package pages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum-optimism/optimism/op-service/testlog"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-browsertest/browser"
	"github.com/ethereum-optimism/infra/op-browsertest/browser/fakebrowser"
)

func newFakeBase(t *testing.T) (*Base, *fakebrowser.Session) {
	signIn := browser.ByLinkText("Sign in")
	query := browser.ByName("q")
	s := fakebrowser.NewSession("Fake/1.0").
		AddPage(GitHubURL, &fakebrowser.Page{
			Title:    GitHubTitle,
			Elements: map[string][]*fakebrowser.Element{signIn.Query: {{Visible: true, Content: "Sign in"}}},
		}).
		AddPage(GoogleURL, &fakebrowser.Page{
			Title:    GoogleTitle,
			Elements: map[string][]*fakebrowser.Element{query.Query: {{Visible: true}}},
		})
	return New(browser.NewDriverFromSession(browser.Chrome, s), testlog.Logger(t, log.LevelInfo)), s
}

func TestBaseNavigation(t *testing.T) {
	b, s := newFakeBase(t)
	ctx := context.Background()

	require.NoError(t, b.Open(ctx, GitHubURL))
	title, err := b.WaitTitleContains(ctx, "GitHub", time.Second)
	require.NoError(t, err)
	b.Expect(t).Equal(GitHubTitle, title)

	title, err = b.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, GitHubTitle, title)

	_, err = b.WaitTitleIs(ctx, "Something else", 50*time.Millisecond)
	require.ErrorIs(t, err, browser.ErrWaitTimeout)

	assert.Equal(t, []string{GitHubURL}, s.Visited)
	assert.Equal(t, browser.Chrome, b.Driver().BrowserName())
}

func TestBaseQuitIsSafe(t *testing.T) {
	b, s := newFakeBase(t)
	require.NoError(t, b.Quit())
	require.NoError(t, b.Quit())
	assert.Equal(t, 1, s.QuitCount())

	s.QuitErr = errors.New("gone")
	b2 := New(browser.NewDriverFromSession(browser.Chrome, s), nil)
	require.Error(t, b2.Quit())
	require.NoError(t, b2.Quit())
}

func TestBaseWithoutDriver(t *testing.T) {
	b := New(nil, nil)
	ctx := context.Background()

	require.ErrorIs(t, b.Open(ctx, GitHubURL), ErrNoDriver)
	_, err := b.Title(ctx)
	require.ErrorIs(t, err, ErrNoDriver)
	_, err = b.WaitElement(ctx, browser.ByID("x"), time.Millisecond)
	require.ErrorIs(t, err, ErrNoDriver)
	require.NoError(t, b.Quit())
}

func TestGitHubHome(t *testing.T) {
	b, _ := newFakeBase(t)
	page := NewGitHubHome(b)
	ctx := context.Background()

	require.NoError(t, page.Open(ctx))
	shown, err := page.SignInDisplayed(ctx)
	require.NoError(t, err)
	assert.True(t, shown)
}

func TestGoogleSearch(t *testing.T) {
	b, s := newFakeBase(t)
	page := NewGoogleSearch(b)
	ctx := context.Background()

	require.NoError(t, page.Open(ctx))
	title, err := page.WaitTitleIs(ctx, GoogleTitle, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Google", title)

	shown, err := page.SearchBoxDisplayed(ctx)
	require.NoError(t, err)
	assert.True(t, shown)

	require.NoError(t, page.Search(ctx, "op-browsertest"))
	els, err := s.FindElements(ctx, page.SearchBox())
	require.NoError(t, err)
	assert.Equal(t, "op-browsertest\n", els[0].(*fakebrowser.Element).Typed)
}
