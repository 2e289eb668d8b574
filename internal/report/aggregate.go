// Package report classifies extracted records into time-of-day buckets,
// computes the totals and renders the chat message.
package report

import (
	"time"

	"github.com/dvloznov/redeban-reporter/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	cutoffHour   = 12
	cutoffMinute = 30
)

// Cutoff splits the business day. Accepted records strictly before 12:30 are
// morning sales; everything from 12:30 on is afternoon.
func Cutoff() domain.Clock {
	return domain.Clock{Hour: cutoffHour, Minute: cutoffMinute}
}

// Buckets partitions accepted records by time of day.
type Buckets struct {
	Morning   []domain.TransactionRecord
	Afternoon []domain.TransactionRecord
}

// Classify places every record in exactly one bucket.
func Classify(accepted []domain.TransactionRecord, cutoff domain.Clock) Buckets {
	var b Buckets
	for _, rec := range accepted {
		if rec.Time.Before(cutoff) {
			b.Morning = append(b.Morning, rec)
		} else {
			b.Afternoon = append(b.Afternoon, rec)
		}
	}
	return b
}

// Sum adds the amounts of recs, rounded to cents.
func Sum(recs []domain.TransactionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range recs {
		total = total.Add(rec.Amount)
	}
	return total.Round(2)
}

// Aggregate builds the run report. It depends only on its arguments.
func Aggregate(accepted, rejected []domain.TransactionRecord, runAt time.Time) domain.AggregateReport {
	b := Classify(accepted, Cutoff())

	morning := Sum(b.Morning)
	afternoon := Sum(b.Afternoon)

	return domain.AggregateReport{
		AcceptedCount:  len(accepted),
		RejectedCount:  len(rejected),
		MorningCount:   len(b.Morning),
		AfternoonCount: len(b.Afternoon),
		MorningTotal:   morning,
		AfternoonTotal: afternoon,
		RejectedTotal:  Sum(rejected),
		GrandTotal:     morning.Add(afternoon),
		PeriodLabel:    runAt.Format("02/01/2006"),
	}
}
