// Package browser drives a single headless Chrome tab for one run.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
)

var (
	// ErrNavigationTimeout is returned when the initial page load does not
	// finish within the navigation timeout.
	ErrNavigationTimeout = errors.New("navigation timeout")

	// ErrElementNotFound is returned when an interaction targets a node that
	// no longer exists.
	ErrElementNotFound = errors.New("element not found")
)

// Element is a handle to a DOM node found by QueryAll. It is only valid for
// the page that returned it.
type Element struct {
	NodeID cdp.NodeID
}

// ClickOptions tune a click.
type ClickOptions struct {
	// Force clicks through script, skipping visibility and overlay checks.
	Force bool
}

// Selector addresses elements either by CSS or by XPath.
type Selector struct {
	Query string
	XPath bool
}

// CSS returns a CSS selector.
func CSS(query string) Selector {
	return Selector{Query: query}
}

// XPath returns an XPath selector.
func XPath(query string) Selector {
	return Selector{Query: query, XPath: true}
}

// HasText selects elements with the given tag whose rendered text contains
// text. Use "*" to match any tag.
func HasText(tag, text string) Selector {
	return XPath(fmt.Sprintf(`//%s[contains(normalize-space(.), %s)]`, tag, xpathLiteral(text)))
}

// OwnText selects the elements whose own text node contains text, i.e. the
// innermost element displaying it.
func OwnText(text string) Selector {
	return XPath(fmt.Sprintf(`//*[text()[contains(normalize-space(.), %s)]]`, xpathLiteral(text)))
}

func (s Selector) String() string {
	if s.XPath {
		return "xpath=" + s.Query
	}
	return s.Query
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	for i, p := range parts {
		parts[i] = `"` + p + `"`
	}
	return "concat(" + strings.Join(parts, `, '"', `) + ")"
}

// Page is the capability the navigation sequence needs from a browser tab.
// Implementations do not retry; callers decide what a failure means.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Settle(ctx context.Context, d time.Duration) error
	QueryAll(ctx context.Context, sel Selector) ([]Element, error)
	Fill(ctx context.Context, el Element, text string) error
	Click(ctx context.Context, el Element, opts ClickOptions) error
	Text(ctx context.Context, el Element) (string, error)
	Close() error
}

// Opener acquires a fresh page for a run. The caller must Close it.
type Opener interface {
	Open(ctx context.Context) (Page, error)
}

// Settle waits for d or until ctx is done.
func Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
