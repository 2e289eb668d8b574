// Package extract turns the scraped ledger text into transaction records.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/redeban-reporter/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	// Delimiter precedes every transaction in the ledger text.
	Delimiter = "Nro de transacción:"

	// RejectedMarker flags a transaction the portal rejected.
	RejectedMarker = "RECHAZADA"

	maxIDLength = 15
	missingID   = "N/A"
)

var (
	idPattern     = regexp.MustCompile(`^([0-9]+)`)
	datePattern   = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	timePattern   = regexp.MustCompile(`(\d{2}):(\d{2})`)
	amountPattern = regexp.MustCompile(`\$\s*([\d,]+\.\d+)`)
)

// Result holds the records extracted from one page text, in ledger order.
type Result struct {
	Accepted []domain.TransactionRecord
	Rejected []domain.TransactionRecord

	// Segments is the number of delimiter-bounded chunks examined, header excluded.
	Segments int
}

// Dropped is the number of segments that did not yield a record.
func (r Result) Dropped() int {
	return r.Segments - len(r.Accepted) - len(r.Rejected)
}

// Records returns accepted and rejected records together, accepted first.
func (r Result) Records() []domain.TransactionRecord {
	out := make([]domain.TransactionRecord, 0, len(r.Accepted)+len(r.Rejected))
	out = append(out, r.Accepted...)
	return append(out, r.Rejected...)
}

// Extract splits pageText on Delimiter and parses every segment after the
// header. Segments missing a date, a time or a positive amount are dropped.
// Identical segments produce identical, repeated records.
func Extract(pageText string) Result {
	parts := strings.Split(pageText, Delimiter)

	var res Result
	for _, segment := range parts[1:] {
		res.Segments++

		rec, ok := ParseSegment(segment)
		if !ok {
			continue
		}
		if rec.Rejected() {
			res.Rejected = append(res.Rejected, rec)
		} else {
			res.Accepted = append(res.Accepted, rec)
		}
	}
	return res
}

// ParseSegment parses a single segment. ok is false when the segment is noise.
func ParseSegment(segment string) (domain.TransactionRecord, bool) {
	date, ok := parseDate(segment)
	if !ok {
		return domain.TransactionRecord{}, false
	}
	clock, ok := parseClock(segment)
	if !ok {
		return domain.TransactionRecord{}, false
	}
	amount, ok := parseAmount(segment)
	if !ok {
		return domain.TransactionRecord{}, false
	}

	status := domain.StatusAccepted
	if strings.Contains(segment, RejectedMarker) {
		status = domain.StatusRejected
	}

	return domain.TransactionRecord{
		ID:     parseID(segment),
		Date:   date,
		Time:   clock,
		Amount: amount,
		Status: status,
	}, true
}

func parseID(segment string) string {
	m := idPattern.FindStringSubmatch(strings.TrimLeft(segment, " \t\r\n"))
	if m == nil {
		return missingID
	}
	id := m[1]
	if len(id) > maxIDLength {
		id = id[:maxIDLength]
	}
	return id
}

func parseDate(segment string) (civil.Date, bool) {
	m := datePattern.FindStringSubmatch(segment)
	if m == nil {
		return civil.Date{}, false
	}
	d, err := civil.ParseDate(m[1])
	if err != nil {
		return civil.Date{}, false
	}
	return d, true
}

func parseClock(segment string) (domain.Clock, bool) {
	m := timePattern.FindStringSubmatch(segment)
	if m == nil {
		return domain.Clock{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	c := domain.Clock{Hour: hour, Minute: minute}
	return c, c.Valid()
}

func parseAmount(segment string) (decimal.Decimal, bool) {
	m := amountPattern.FindStringSubmatch(segment)
	if m == nil {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}
