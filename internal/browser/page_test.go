package browser

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHasText(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		text string
		want string
	}{
		{
			name: "button",
			tag:  "button",
			text: "Ingresar",
			want: `//button[contains(normalize-space(.), "Ingresar")]`,
		},
		{
			name: "double quote in text",
			tag:  "*",
			text: `Say "hi"`,
			want: `//*[contains(normalize-space(.), 'Say "hi"')]`,
		},
		{
			name: "both quote kinds",
			tag:  "span",
			text: `a"b'c`,
			want: `//span[contains(normalize-space(.), concat("a", '"', "b'c"))]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := HasText(tt.tag, tt.text)
			if !sel.XPath {
				t.Fatal("HasText must build an XPath selector")
			}
			if sel.Query != tt.want {
				t.Errorf("HasText() = %s, want %s", sel.Query, tt.want)
			}
		})
	}
}

func TestSelectorString(t *testing.T) {
	if got := CSS("div[role=\"main\"]").String(); got != `div[role="main"]` {
		t.Errorf("CSS String() = %q", got)
	}
	if got := XPath("//body").String(); got != "xpath=//body" {
		t.Errorf("XPath String() = %q", got)
	}
}

func TestSettle_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Settle(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Settle() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Settle() did not return promptly on cancellation")
	}
}

func TestSettle_ZeroDuration(t *testing.T) {
	if err := Settle(context.Background(), 0); err != nil {
		t.Errorf("Settle(0) error = %v", err)
	}
}

func TestNewChromeOpener_DefaultActionTimeout(t *testing.T) {
	o := NewChromeOpener(Options{Headless: true})
	if o.opts.ActionTimeout != 30*time.Second {
		t.Errorf("ActionTimeout = %s, want 30s", o.opts.ActionTimeout)
	}
}
