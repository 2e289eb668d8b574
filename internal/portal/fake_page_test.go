package portal

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/dvloznov/redeban-reporter/internal/browser"
)

// fakePage is a scripted browser.Page. Elements are registered per selector
// query; every interaction is recorded for assertions.
type fakePage struct {
	elements map[string][]browser.Element
	texts    map[cdp.NodeID]string
	queryErr map[string]error
	clickErr map[cdp.NodeID]error

	NavigateFunc func(ctx context.Context, url string, timeout time.Duration) error

	navigated []string
	settled   []time.Duration
	filled    map[cdp.NodeID]string
	clicks    []click
	closed    bool

	nextID cdp.NodeID
}

type click struct {
	el    browser.Element
	force bool
}

func newFakePage() *fakePage {
	return &fakePage{
		elements: make(map[string][]browser.Element),
		texts:    make(map[cdp.NodeID]string),
		queryErr: make(map[string]error),
		clickErr: make(map[cdp.NodeID]error),
		filled:   make(map[cdp.NodeID]string),
	}
}

// add registers a new element under sel with the given text and returns it.
func (p *fakePage) add(sel browser.Selector, text string) browser.Element {
	p.nextID++
	el := browser.Element{NodeID: p.nextID}
	p.elements[sel.Query] = append(p.elements[sel.Query], el)
	p.texts[el.NodeID] = text
	return el
}

func (p *fakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.navigated = append(p.navigated, url)
	if p.NavigateFunc != nil {
		return p.NavigateFunc(ctx, url, timeout)
	}
	return nil
}

func (p *fakePage) Settle(ctx context.Context, d time.Duration) error {
	p.settled = append(p.settled, d)
	return ctx.Err()
}

func (p *fakePage) QueryAll(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	if err := p.queryErr[sel.Query]; err != nil {
		return nil, err
	}
	return p.elements[sel.Query], nil
}

func (p *fakePage) Fill(ctx context.Context, el browser.Element, text string) error {
	p.filled[el.NodeID] = text
	return nil
}

func (p *fakePage) Click(ctx context.Context, el browser.Element, opts browser.ClickOptions) error {
	if err := p.clickErr[el.NodeID]; err != nil {
		return err
	}
	p.clicks = append(p.clicks, click{el: el, force: opts.Force})
	return nil
}

func (p *fakePage) Text(ctx context.Context, el browser.Element) (string, error) {
	text, ok := p.texts[el.NodeID]
	if !ok {
		return "", fmt.Errorf("node %d: %w", el.NodeID, browser.ErrElementNotFound)
	}
	return text, nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

func (p *fakePage) clicked(el browser.Element) (click, bool) {
	for _, c := range p.clicks {
		if c.el == el {
			return c, true
		}
	}
	return click{}, false
}

var _ browser.Page = (*fakePage)(nil)
