package domain

import "github.com/shopspring/decimal"

// AggregateReport is the per-run summary computed from the extracted records.
type AggregateReport struct {
	AcceptedCount  int
	RejectedCount  int
	MorningCount   int
	AfternoonCount int

	MorningTotal   decimal.Decimal
	AfternoonTotal decimal.Decimal
	RejectedTotal  decimal.Decimal // reported, never part of GrandTotal
	GrandTotal     decimal.Decimal // MorningTotal + AfternoonTotal

	PeriodLabel string // run date as dd/mm/yyyy in the report time zone
}

// PipelineResult is the externally visible outcome of one run.
type PipelineResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Transactions int    `json:"transactions,omitempty"`
	Error        string `json:"error,omitempty"`
}
