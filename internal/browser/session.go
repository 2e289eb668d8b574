package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Options configure how Chrome is started.
type Options struct {
	// RemoteURL points at an already running browser's DevTools websocket.
	// When empty a local headless Chrome is launched.
	RemoteURL string

	Headless bool

	// ActionTimeout bounds every query, fill, click and text read.
	ActionTimeout time.Duration
}

// ChromeOpener launches one Chrome tab per Open call.
type ChromeOpener struct {
	opts Options
}

// NewChromeOpener creates an Opener backed by chromedp.
func NewChromeOpener(opts Options) *ChromeOpener {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 30 * time.Second
	}
	return &ChromeOpener{opts: opts}
}

// Open starts the browser and a tab. The returned page owns both and releases
// them on Close.
func (o *ChromeOpener) Open(ctx context.Context) (Page, error) {
	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)
	if o.opts.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, o.opts.RemoteURL)
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoSandbox,
			chromedp.Flag("disable-setuid-sandbox", true),
			chromedp.Flag("headless", o.opts.Headless),
		)
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, allocOpts...)
	}

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Run with no actions starts the browser and attaches the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser.Open: start chrome: %w", err)
	}

	return &Session{
		ctx:           tabCtx,
		cancelTab:     cancelTab,
		cancelAlloc:   cancelAlloc,
		actionTimeout: o.opts.ActionTimeout,
	}, nil
}

// Session is a Page backed by a chromedp tab.
type Session struct {
	ctx           context.Context
	cancelTab     context.CancelFunc
	cancelAlloc   context.CancelFunc
	actionTimeout time.Duration
	closeOnce     sync.Once
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(opCtx, actions...)
}

func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	err := s.run(ctx, timeout, chromedp.Navigate(url))
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrNavigationTimeout, url, timeout)
	}
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *Session) Settle(ctx context.Context, d time.Duration) error {
	return Settle(ctx, d)
}

func (s *Session) QueryAll(ctx context.Context, sel Selector) ([]Element, error) {
	by := chromedp.ByQueryAll
	if sel.XPath {
		by = chromedp.BySearch
	}

	var nodes []*cdp.Node
	err := s.run(ctx, s.actionTimeout,
		chromedp.Nodes(sel.Query, &nodes, by, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", sel, err)
	}

	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Element{NodeID: n.NodeID})
	}
	return out, nil
}

func (s *Session) Fill(ctx context.Context, el Element, text string) error {
	ids := []cdp.NodeID{el.NodeID}
	err := s.run(ctx, s.actionTimeout,
		chromedp.SetValue(ids, "", chromedp.ByNodeID),
		chromedp.SendKeys(ids, text, chromedp.ByNodeID),
	)
	if err != nil {
		return fmt.Errorf("fill node %d: %w", el.NodeID, elementErr(err))
	}
	return nil
}

func (s *Session) Click(ctx context.Context, el Element, opts ClickOptions) error {
	var action chromedp.Action
	if opts.Force {
		action = forceClick(el.NodeID)
	} else {
		action = chromedp.Click([]cdp.NodeID{el.NodeID}, chromedp.ByNodeID)
	}

	if err := s.run(ctx, s.actionTimeout, action); err != nil {
		return fmt.Errorf("click node %d: %w", el.NodeID, elementErr(err))
	}
	return nil
}

func (s *Session) Text(ctx context.Context, el Element) (string, error) {
	var text string
	err := s.run(ctx, s.actionTimeout,
		chromedp.Text([]cdp.NodeID{el.NodeID}, &text, chromedp.ByNodeID),
	)
	if err != nil {
		return "", fmt.Errorf("text of node %d: %w", el.NodeID, elementErr(err))
	}
	return text, nil
}

// Close shuts the tab and the browser. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancelTab()
		s.cancelAlloc()
	})
	return nil
}

// forceClick calls element.click() in the page, which fires the handler even
// when the node is covered by an overlay or still animating.
func forceClick(id cdp.NodeID) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(id).Do(ctx)
		if err != nil {
			return err
		}
		_, exc, err := runtime.CallFunctionOn(`function() { this.click(); }`).
			WithObjectID(obj.ObjectID).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		return nil
	})
}

// elementErr maps a stale node into ErrElementNotFound.
func elementErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrElementNotFound, err)
	}
	return err
}

var (
	_ Opener = (*ChromeOpener)(nil)
	_ Page   = (*Session)(nil)
)
