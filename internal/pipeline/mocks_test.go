package pipeline_test

import (
	"context"
	"sync"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/browser"
	"github.com/dvloznov/redeban-reporter/internal/events"
	"github.com/dvloznov/redeban-reporter/internal/portal"
	"github.com/dvloznov/redeban-reporter/internal/runlock"
)

// MockPage is a browser.Page with no elements that records Close.
type MockPage struct {
	NavigateFunc func(ctx context.Context, url string, timeout time.Duration) error
	closed       int
}

func (p *MockPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if p.NavigateFunc != nil {
		return p.NavigateFunc(ctx, url, timeout)
	}
	return nil
}

func (p *MockPage) Settle(context.Context, time.Duration) error {
	return nil
}

func (p *MockPage) QueryAll(context.Context, browser.Selector) ([]browser.Element, error) {
	return nil, nil
}

func (p *MockPage) Fill(context.Context, browser.Element, string) error {
	return nil
}

func (p *MockPage) Click(context.Context, browser.Element, browser.ClickOptions) error {
	return nil
}

func (p *MockPage) Text(context.Context, browser.Element) (string, error) {
	return "", nil
}

func (p *MockPage) Close() error {
	p.closed++
	return nil
}

// MockOpener hands out one MockPage.
type MockOpener struct {
	Page     *MockPage
	OpenFunc func(ctx context.Context) (browser.Page, error)
}

func (m *MockOpener) Open(ctx context.Context) (browser.Page, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx)
	}
	return m.Page, nil
}

// MockNavigator is a mock implementation of Navigator.
type MockNavigator struct {
	RunFunc func(ctx context.Context, page browser.Page) (*portal.Outcome, error)
}

func (m *MockNavigator) Run(ctx context.Context, page browser.Page) (*portal.Outcome, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, page)
	}
	return &portal.Outcome{State: portal.StateDone}, nil
}

func ledger(text string) *MockNavigator {
	return &MockNavigator{
		RunFunc: func(context.Context, browser.Page) (*portal.Outcome, error) {
			return &portal.Outcome{State: portal.StateDone, PageText: text, Container: "main"}, nil
		},
	}
}

// MockNotifier records every message.
type MockNotifier struct {
	mu       sync.Mutex
	Sent     []string
	SendFunc func(ctx context.Context, text string) error
}

func (m *MockNotifier) Send(ctx context.Context, text string) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, text)
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, text)
	}
	return nil
}

// MockArchiver is a mock implementation of archive.Archiver.
type MockArchiver struct {
	SaveFunc func(ctx context.Context, runID string, at time.Time, text string) (string, error)
}

func (m *MockArchiver) Save(ctx context.Context, runID string, at time.Time, text string) (string, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, runID, at, text)
	}
	return "gs://bucket/" + runID + ".txt", nil
}

// MockPublisher records published events.
type MockPublisher struct {
	Events      []events.RunCompleted
	PublishFunc func(ctx context.Context, event events.RunCompleted) error
}

func (m *MockPublisher) Publish(ctx context.Context, event events.RunCompleted) error {
	m.Events = append(m.Events, event)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	return nil
}

// MockLocker is a mock implementation of runlock.Locker.
type MockLocker struct {
	AcquireFunc func(ctx context.Context, key string) (runlock.Release, error)
	released    int
}

func (m *MockLocker) Acquire(ctx context.Context, key string) (runlock.Release, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key)
	}
	return func(context.Context) error {
		m.released++
		return nil
	}, nil
}
