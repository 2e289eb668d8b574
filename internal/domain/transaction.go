package domain

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Status is the portal's verdict on a transaction.
type Status string

const (
	StatusAccepted Status = "ACEPTADA"
	StatusRejected Status = "RECHAZADA"
)

// Clock is a local wall-clock time with minute precision, as rendered by the
// portal ("HH:MM").
type Clock struct {
	Hour   int
	Minute int
}

// Before reports whether c is strictly earlier in the day than other.
func (c Clock) Before(other Clock) bool {
	if c.Hour != other.Hour {
		return c.Hour < other.Hour
	}
	return c.Minute < other.Minute
}

// Valid reports whether c is a real time of day.
func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// TransactionRecord is one transaction scraped from the ledger text.
// Records are created by the extractor only and are never modified afterwards.
type TransactionRecord struct {
	ID     string          // "Nro de transacción", at most 15 chars, "N/A" if absent
	Date   civil.Date      // first YYYY-MM-DD in the segment
	Time   Clock           // first HH:MM in the segment
	Amount decimal.Decimal // always > 0
	Status Status
}

// Rejected reports whether the portal rejected the transaction.
func (t TransactionRecord) Rejected() bool {
	return t.Status == StatusRejected
}
