package browser

import (
	"context"
	"errors"
	"fmt"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
)

// chromedpSession drives Chrome over CDP through a chromedp exec allocator.
type chromedpSession struct {
	ctx         context.Context // tab context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

func chromedpOptions(spec LaunchSpec) []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+len(spec.Args)+1)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)
	if !spec.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	for _, arg := range spec.Args {
		name, value := splitArg(arg)
		if value == "" {
			opts = append(opts, chromedp.Flag(name, true))
		} else {
			opts = append(opts, chromedp.Flag(name, value))
		}
	}
	return opts
}

func launchChromedp(ctx context.Context, spec LaunchSpec) (Session, error) {
	// the browser outlives the launch call, so only values are inherited from ctx
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), chromedpOptions(spec)...)
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	s := &chromedpSession{ctx: tabCtx, cancel: cancel, allocCancel: allocCancel}
	// the first Run starts the browser process
	if err := s.run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}
	return s, nil
}

// run executes actions on the tab, stopping early when ctx is done.
func (s *chromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *chromedpSession) Get(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromedpSession) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, chromedp.Title(&title))
	return title, err
}

func (s *chromedpSession) FindElements(ctx context.Context, loc Locator) ([]Element, error) {
	by := chromedp.ByQueryAll
	if loc.Strategy == StrategyXPath {
		by = chromedp.BySearch
	}
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(loc.Query, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	els := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &chromedpElement{session: s, node: n})
	}
	return els, nil
}

func (s *chromedpSession) Version(ctx context.Context) (string, error) {
	var product string
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		_, product, _, _, _, err = cdpbrowser.GetVersion().Do(ctx)
		return err
	}))
	return product, err
}

func (s *chromedpSession) Quit() error {
	defer s.allocCancel()
	defer s.cancel()
	if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close chrome: %w", err)
	}
	return nil
}

type chromedpElement struct {
	session *chromedpSession
	node    *cdp.Node
}

func (e *chromedpElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

// Displayed reports whether the node has a layout box.
func (e *chromedpElement) Displayed(ctx context.Context) (bool, error) {
	visible := false
	err := e.session.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		model, err := dom.GetBoxModel().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			// no box model means the node is not rendered
			return nil
		}
		visible = model.Width > 0 && model.Height > 0
		return nil
	}))
	return visible, err
}

func (e *chromedpElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.session.run(ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID))
	return text, err
}

func (e *chromedpElement) Click(ctx context.Context) error {
	return e.session.run(ctx, chromedp.MouseClickNode(e.node))
}

func (e *chromedpElement) SendKeys(ctx context.Context, keys string) error {
	return e.session.run(ctx, chromedp.SendKeys(e.ids(), keys, chromedp.ByNodeID))
}
