package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/redeban-reporter/internal/browser"
)

// ErrNoMatch is returned by FirstMatch when every strategy came up empty.
var ErrNoMatch = errors.New("no strategy matched")

// Strategy is one way of locating an element. Find returns ok=false when the
// element is simply absent; errors are reserved for browser failures.
type Strategy struct {
	Name string
	Find func(ctx context.Context, page browser.Page) (el browser.Element, ok bool, err error)
}

// FirstMatch tries strategies in order and returns the first element found
// along with the name of the strategy that found it. A failing strategy does
// not stop the search; its error is reported only if nothing matches.
func FirstMatch(ctx context.Context, page browser.Page, strategies ...Strategy) (browser.Element, string, error) {
	var errs []error
	for _, s := range strategies {
		el, ok, err := s.Find(ctx, page)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		if ok {
			return el, s.Name, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return browser.Element{}, "", err
	}
	return browser.Element{}, "", errors.Join(append([]error{ErrNoMatch}, errs...)...)
}

// BySelector finds the first element matching sel.
func BySelector(name string, sel browser.Selector) Strategy {
	return Strategy{
		Name: name,
		Find: func(ctx context.Context, page browser.Page) (browser.Element, bool, error) {
			els, err := page.QueryAll(ctx, sel)
			if err != nil {
				return browser.Element{}, false, err
			}
			if len(els) == 0 {
				return browser.Element{}, false, nil
			}
			return els[0], true, nil
		},
	}
}

// ByTextScan reads the text of every element matching sel and returns the
// first one containing text. Elements whose text cannot be read are skipped.
func ByTextScan(name string, sel browser.Selector, text string) Strategy {
	return Strategy{
		Name: name,
		Find: func(ctx context.Context, page browser.Page) (browser.Element, bool, error) {
			els, err := page.QueryAll(ctx, sel)
			if err != nil {
				return browser.Element{}, false, err
			}
			for _, el := range els {
				got, err := page.Text(ctx, el)
				if err != nil {
					continue
				}
				if strings.Contains(got, text) {
					return el, true, nil
				}
			}
			return browser.Element{}, false, nil
		},
	}
}
