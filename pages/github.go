package pages

import (
	"context"

	"github.com/ethereum-optimism/infra/op-browsertest/browser"
)

const (
	GitHubURL   = "https://github.com"
	GitHubTitle = "GitHub · Build and ship software on a single, collaborative platform · GitHub"
)

// GitHubHome is the public GitHub landing page.
type GitHubHome struct {
	*Base
}

func NewGitHubHome(base *Base) *GitHubHome {
	return &GitHubHome{Base: base}
}

func (p *GitHubHome) SignInLink() browser.Locator {
	return browser.ByLinkText("Sign in")
}

func (p *GitHubHome) Open(ctx context.Context) error {
	return p.Base.Open(ctx, GitHubURL)
}

// SignInDisplayed waits for the "Sign in" link and reports whether it is shown.
func (p *GitHubHome) SignInDisplayed(ctx context.Context) (bool, error) {
	el, err := p.WaitElement(ctx, p.SignInLink(), DefaultWait)
	if err != nil {
		return false, err
	}
	return el.Displayed(ctx)
}
