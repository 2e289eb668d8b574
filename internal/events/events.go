// Package events holds the messages a run publishes about itself.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RunCompletedTopic is the default topic for RunCompleted.
const RunCompletedTopic = "redeban.run_completed"

// RunCompleted describes the outcome of one run.
type RunCompleted struct {
	RunID        string          `json:"run_id"`
	MerchantCode string          `json:"merchant_code"`
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Error        string          `json:"error,omitempty"`
	Accepted     int             `json:"accepted"`
	Rejected     int             `json:"rejected"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
}

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event RunCompleted) error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, RunCompleted) error { return nil }
