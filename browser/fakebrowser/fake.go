// Package fakebrowser provides an in-memory browser.Session for tests.
package fakebrowser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum-optimism/infra/op-browsertest/browser"
)

var ErrNoPage = errors.New("no page loaded")

// Page is the state a Session serves for one URL.
type Page struct {
	Title string
	// Elements maps a locator query to the elements it matches.
	Elements map[string][]*Element
}

// Session serves canned pages. Pages can be changed while a test runs.
type Session struct {
	mu      sync.Mutex
	pages   map[string]*Page
	current *Page
	version string

	GetErr     error
	VersionErr error
	QuitErr    error

	Visited []string
	Quits   int
}

func NewSession(version string) *Session {
	return &Session{pages: make(map[string]*Page), version: version}
}

// AddPage registers the page served for url.
func (s *Session) AddPage(url string, p *Page) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Elements == nil {
		p.Elements = make(map[string][]*Element)
	}
	s.pages[url] = p
	return s
}

// Update mutates the current page under the session lock.
func (s *Session) Update(fn func(p *Page)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		fn(s.current)
	}
}

func (s *Session) Get(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Visited = append(s.Visited, url)
	if s.GetErr != nil {
		return s.GetErr
	}
	p, ok := s.pages[url]
	if !ok {
		return fmt.Errorf("navigate %s: not found", url)
	}
	s.current = p
	return nil
}

func (s *Session) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return "", ErrNoPage
	}
	return s.current.Title, nil
}

func (s *Session) FindElements(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNoPage
	}
	found := s.current.Elements[loc.Query]
	els := make([]browser.Element, 0, len(found))
	for _, el := range found {
		els = append(els, el)
	}
	return els, nil
}

func (s *Session) Version(ctx context.Context) (string, error) {
	if s.VersionErr != nil {
		return "", s.VersionErr
	}
	return s.version, nil
}

func (s *Session) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Quits++
	return s.QuitErr
}

// QuitCount returns how many times Quit reached the session.
func (s *Session) QuitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Quits
}

// Element is a canned DOM node.
type Element struct {
	mu      sync.Mutex
	Visible bool
	Content string
	Typed   string
	Clicks  int
}

func (e *Element) Displayed(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Visible, ctx.Err()
}

func (e *Element) Text(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Content, ctx.Err()
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Clicks++
	return ctx.Err()
}

func (e *Element) SendKeys(ctx context.Context, keys string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Typed += keys
	return ctx.Err()
}

var (
	_ browser.Session = (*Session)(nil)
	_ browser.Element = (*Element)(nil)
)
