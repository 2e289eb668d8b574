// Package notify delivers report messages to the chat channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/logger"
)

// ErrDeliveryFailed means the channel did not accept the message.
var ErrDeliveryFailed = errors.New("notification delivery failed")

const (
	// DefaultTelegramURL is the Bot API base URL.
	DefaultTelegramURL = "https://api.telegram.org"

	// DefaultTimeout bounds a single send. Sends are never retried.
	DefaultTimeout = 10 * time.Second
)

// Notifier sends a formatted message to a chat.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// TelegramNotifier posts messages through the Telegram Bot API.
type TelegramNotifier struct {
	baseURL    string
	token      string
	chatID     string
	httpClient *http.Client
}

// NewTelegramNotifier creates a notifier for one bot and chat. An empty
// baseURL selects the public Bot API.
func NewTelegramNotifier(baseURL, token, chatID string, timeout time.Duration) *TelegramNotifier {
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TelegramNotifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send posts text with parse_mode HTML. Only a 200 response counts as delivered.
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	log := logger.FromContext(ctx)

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Info().Int("chars", len(text)).Msg("Sending Telegram message")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of the error.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	log.Info().Int("status", resp.StatusCode).Msg("Telegram response")

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrDeliveryFailed, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

var _ Notifier = (*TelegramNotifier)(nil)
