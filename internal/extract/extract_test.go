package extract

import (
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/redeban-reporter/internal/domain"
	"github.com/shopspring/decimal"
)

const ledgerFixture = `Consulta Transacciones
Fecha inicial 2025-06-01 Fecha final 2025-06-01
Nro de transacción: 123456789 2025-06-01 09:15 Compra QR ACEPTADA $ 1,250.00 Detalle
Nro de transacción: 223456789 2025-06-01 13:40 Compra QR ACEPTADA $ 80,000.50
Nro de transacción: 323456789 2025-06-01 11:02 Compra QR RECHAZADA $ 300.00
Nro de transacción: 423456789 sin fecha $ 10.00
Nro de transacción: 523456789 2025-06-01 14:00 Compra QR $ 0.00
`

func TestExtract_Fixture(t *testing.T) {
	res := Extract(ledgerFixture)

	if res.Segments != 5 {
		t.Fatalf("Segments = %d, want 5", res.Segments)
	}
	if len(res.Accepted) != 2 {
		t.Fatalf("len(Accepted) = %d, want 2", len(res.Accepted))
	}
	if len(res.Rejected) != 1 {
		t.Fatalf("len(Rejected) = %d, want 1", len(res.Rejected))
	}
	if res.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", res.Dropped())
	}

	first := res.Accepted[0]
	if first.ID != "123456789" {
		t.Errorf("ID = %q, want 123456789", first.ID)
	}
	if first.Date != (civil.Date{Year: 2025, Month: 6, Day: 1}) {
		t.Errorf("Date = %v, want 2025-06-01", first.Date)
	}
	if first.Time != (domain.Clock{Hour: 9, Minute: 15}) {
		t.Errorf("Time = %v, want 09:15", first.Time)
	}
	if !first.Amount.Equal(decimal.RequireFromString("1250.00")) {
		t.Errorf("Amount = %s, want 1250.00", first.Amount)
	}
	if first.Status != domain.StatusAccepted {
		t.Errorf("Status = %s, want %s", first.Status, domain.StatusAccepted)
	}

	if res.Accepted[1].ID != "223456789" {
		t.Errorf("second accepted ID = %q, want ledger order preserved", res.Accepted[1].ID)
	}

	rejected := res.Rejected[0]
	if rejected.Status != domain.StatusRejected {
		t.Errorf("rejected Status = %s", rejected.Status)
	}
	if !rejected.Amount.Equal(decimal.RequireFromString("300")) {
		t.Errorf("rejected Amount = %s, want 300.00", rejected.Amount)
	}
}

func TestParseSegment(t *testing.T) {
	tests := []struct {
		name    string
		segment string
		wantOK  bool
		wantID  string
		status  domain.Status
	}{
		{
			name:    "worked example",
			segment: "123456789 2025-06-01 09:15 ... $ 1,250.00 ...",
			wantOK:  true,
			wantID:  "123456789",
			status:  domain.StatusAccepted,
		},
		{
			name:    "leading whitespace before id",
			segment: "\n  987 2025-06-01 10:00 $ 5.00",
			wantOK:  true,
			wantID:  "987",
			status:  domain.StatusAccepted,
		},
		{
			name:    "long id truncated",
			segment: "12345678901234567890 2025-06-01 10:00 $ 5.00",
			wantOK:  true,
			wantID:  "123456789012345",
			status:  domain.StatusAccepted,
		},
		{
			name:    "missing id defaults",
			segment: "Comercio 2025-06-01 10:00 $ 5.00",
			wantOK:  true,
			wantID:  "N/A",
			status:  domain.StatusAccepted,
		},
		{
			name:    "rejected anywhere in segment",
			segment: "1 2025-06-01 10:00 $ 5.00 estado: RECHAZADA",
			wantOK:  true,
			wantID:  "1",
			status:  domain.StatusRejected,
		},
		{
			name:    "lowercase rechazada is not a match",
			segment: "1 2025-06-01 10:00 $ 5.00 rechazada",
			wantOK:  true,
			wantID:  "1",
			status:  domain.StatusAccepted,
		},
		{name: "missing date", segment: "1 10:00 $ 5.00", wantOK: false},
		{name: "missing time", segment: "1 2025-06-01 $ 5.00", wantOK: false},
		{name: "missing amount", segment: "1 2025-06-01 10:00", wantOK: false},
		{name: "amount without decimals", segment: "1 2025-06-01 10:00 $ 500", wantOK: false},
		{name: "zero amount", segment: "1 2025-06-01 10:00 $ 0.00", wantOK: false},
		{name: "impossible date", segment: "1 2025-13-45 10:00 $ 5.00", wantOK: false},
		{name: "impossible time", segment: "1 2025-06-01 99:10 $ 5.00", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := ParseSegment(tt.segment)
			if ok != tt.wantOK {
				t.Fatalf("ParseSegment() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if rec.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", rec.ID, tt.wantID)
			}
			if rec.Status != tt.status {
				t.Errorf("Status = %s, want %s", rec.Status, tt.status)
			}
		})
	}
}

func TestExtract_NoDelimiter(t *testing.T) {
	res := Extract("Bienvenido 2025-06-01 09:15 $ 1,000.00")
	if res.Segments != 0 || len(res.Records()) != 0 {
		t.Errorf("Expected header-only text to yield nothing, got %+v", res)
	}
}

func TestExtract_DuplicatesAreKept(t *testing.T) {
	seg := Delimiter + " 1 2025-06-01 09:15 $ 10.00 "
	res := Extract("header" + seg + seg)
	if len(res.Accepted) != 2 {
		t.Errorf("len(Accepted) = %d, want 2 (no deduplication)", len(res.Accepted))
	}
}

func TestExtract_OutputNeverExceedsSegments(t *testing.T) {
	texts := []string{
		ledgerFixture,
		strings.Repeat(Delimiter+" junk ", 10),
		"",
		Delimiter,
	}
	for _, text := range texts {
		res := Extract(text)
		if len(res.Records()) > res.Segments {
			t.Errorf("records %d > segments %d for %q", len(res.Records()), res.Segments, text)
		}
	}
}
