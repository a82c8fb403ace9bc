package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const DefaultPollInterval = 100 * time.Millisecond

var ErrWaitTimeout = errors.New("wait timed out")

// Condition is polled by Wait until Check reports ok.
type Condition[T any] struct {
	Description string
	Check       func(ctx context.Context, s Session) (T, bool, error)
}

// Wait polls cond every DefaultPollInterval until it holds, returns an error, or timeout elapses.
func Wait[T any](ctx context.Context, s Session, cond Condition[T], timeout time.Duration) (T, error) {
	return WaitWithInterval(ctx, s, cond, timeout, DefaultPollInterval)
}

func WaitWithInterval[T any](ctx context.Context, s Session, cond Condition[T], timeout, interval time.Duration) (T, error) {
	var zero T
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		v, ok, err := cond.Check(ctx, s)
		if ctx.Err() != nil {
			return zero, waitErr(ctx, cond.Description, timeout)
		}
		if err != nil {
			return zero, fmt.Errorf("waiting for %s: %w", cond.Description, err)
		}
		if ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return zero, waitErr(ctx, cond.Description, timeout)
		case <-ticker.C:
		}
	}
}

func waitErr(ctx context.Context, desc string, timeout time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrWaitTimeout, desc, timeout)
	}
	return ctx.Err()
}

func TitleIs(want string) Condition[string] {
	return Condition[string]{
		Description: fmt.Sprintf("title to be %q", want),
		Check: func(ctx context.Context, s Session) (string, bool, error) {
			title, err := s.Title(ctx)
			return title, err == nil && title == want, err
		},
	}
}

func TitleContains(sub string) Condition[string] {
	return Condition[string]{
		Description: fmt.Sprintf("title to contain %q", sub),
		Check: func(ctx context.Context, s Session) (string, bool, error) {
			title, err := s.Title(ctx)
			return title, err == nil && strings.Contains(title, sub), err
		},
	}
}

// ElementLocated holds once at least one element matches loc, yielding the first one.
func ElementLocated(loc Locator) Condition[Element] {
	return Condition[Element]{
		Description: fmt.Sprintf("element located by %s", loc),
		Check: func(ctx context.Context, s Session) (Element, bool, error) {
			els, err := s.FindElements(ctx, loc)
			if err != nil || len(els) == 0 {
				return nil, false, err
			}
			return els[0], true, nil
		},
	}
}

// ElementVisible holds once an element matching loc is displayed, yielding that element.
func ElementVisible(loc Locator) Condition[Element] {
	return Condition[Element]{
		Description: fmt.Sprintf("element visible by %s", loc),
		Check: func(ctx context.Context, s Session) (Element, bool, error) {
			els, err := s.FindElements(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			for _, el := range els {
				shown, err := el.Displayed(ctx)
				if err != nil {
					return nil, false, err
				}
				if shown {
					return el, true, nil
				}
			}
			return nil, false, nil
		},
	}
}
