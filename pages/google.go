package pages

import (
	"context"

	"github.com/ethereum-optimism/infra/op-browsertest/browser"
)

const (
	GoogleURL   = "https://www.google.com"
	GoogleTitle = "Google"
)

// GoogleSearch is the Google search landing page.
type GoogleSearch struct {
	*Base
}

func NewGoogleSearch(base *Base) *GoogleSearch {
	return &GoogleSearch{Base: base}
}

func (p *GoogleSearch) SearchBox() browser.Locator {
	return browser.ByName("q")
}

func (p *GoogleSearch) Open(ctx context.Context) error {
	return p.Base.Open(ctx, GoogleURL)
}

// SearchBoxDisplayed waits for the query input and reports whether it is shown.
func (p *GoogleSearch) SearchBoxDisplayed(ctx context.Context) (bool, error) {
	el, err := p.WaitElement(ctx, p.SearchBox(), DefaultWait)
	if err != nil {
		return false, err
	}
	return el.Displayed(ctx)
}

// Search types query into the search box.
func (p *GoogleSearch) Search(ctx context.Context, query string) error {
	el, err := p.WaitVisible(ctx, p.SearchBox(), DefaultWait)
	if err != nil {
		return err
	}
	return el.SendKeys(ctx, query+"\n")
}
