package browser

import "context"

// Session is a live connection to one browser instance.
type Session interface {
	// Get navigates the current page and waits for it to load.
	Get(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	// FindElements returns the elements currently matching loc without waiting.
	FindElements(ctx context.Context, loc Locator) ([]Element, error)
	Version(ctx context.Context) (string, error)
	// Quit closes the browser and releases its process.
	Quit() error
}

// Element is a handle to a DOM node in a Session.
type Element interface {
	Displayed(ctx context.Context) (bool, error)
	Text(ctx context.Context) (string, error)
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, keys string) error
}
