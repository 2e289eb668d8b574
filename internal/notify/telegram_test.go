package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTelegramNotifier_Send(t *testing.T) {
	var got sendMessageRequest
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "TOKEN", "-100123", time.Second)
	if err := n.Send(context.Background(), "<b>hola</b>"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotPath != "/botTOKEN/sendMessage" {
		t.Errorf("path = %s, want /botTOKEN/sendMessage", gotPath)
	}
	if got.ChatID != "-100123" || got.Text != "<b>hola</b>" || got.ParseMode != "HTML" {
		t.Errorf("request = %+v", got)
	}
}

func TestTelegramNotifier_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"Bad Request: can't parse entities"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewTelegramNotifier(srv.URL, "TOKEN", "1", time.Second).Send(context.Background(), "x")
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("Send() error = %v, want ErrDeliveryFailed", err)
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error should carry the status code, got %v", err)
	}
}

func TestTelegramNotifier_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := NewTelegramNotifier(srv.URL, "SECRET", "1", 50*time.Millisecond).Send(context.Background(), "x")
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("Send() error = %v, want ErrDeliveryFailed", err)
	}
	if strings.Contains(err.Error(), "SECRET") {
		t.Errorf("error leaks the bot token: %v", err)
	}
}

func TestNewTelegramNotifier_Defaults(t *testing.T) {
	n := NewTelegramNotifier("", "t", "c", 0)
	if n.baseURL != DefaultTelegramURL {
		t.Errorf("baseURL = %s, want %s", n.baseURL, DefaultTelegramURL)
	}
	if n.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %s, want %s", n.httpClient.Timeout, DefaultTimeout)
	}
}
