// Package pipeline runs one report: scrape the portal, parse the ledger
// text, aggregate it and deliver the summary.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/archive"
	"github.com/dvloznov/redeban-reporter/internal/browser"
	"github.com/dvloznov/redeban-reporter/internal/domain"
	"github.com/dvloznov/redeban-reporter/internal/extract"
	"github.com/dvloznov/redeban-reporter/internal/logger"
	"github.com/dvloznov/redeban-reporter/internal/notify"
	"github.com/dvloznov/redeban-reporter/internal/portal"
	"github.com/dvloznov/redeban-reporter/internal/report"
)

// PipelineStep represents a single step in the report pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	RunID       string
	StartedAt   time.Time // in the report time zone
	Outcome     *portal.Outcome
	PageText    string
	SnapshotURI string
	Extracted   extract.Result
	Report      domain.AggregateReport
	Empty       bool // no accepted transactions; the empty notice was sent
}

// Navigator walks an open page to the ledger and reads its text.
type Navigator interface {
	Run(ctx context.Context, page browser.Page) (*portal.Outcome, error)
}

// Step 1: ScrapeStep opens the browser, navigates to the ledger and keeps its text.
type ScrapeStep struct {
	Opener    browser.Opener
	Navigator Navigator
}

func (s *ScrapeStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	page, err := s.Opener.Open(ctx)
	if err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close browser")
		}
	}()

	out, err := s.Navigator.Run(ctx, page)
	state.Outcome = out
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}

	state.PageText = out.PageText
	log.Info().
		Int("chars", len(out.PageText)).
		Str("container", out.Container).
		Int("skipped_states", len(out.Skipped)).
		Msg("Portal sequence completed")
	return nil
}

// Step 2: SnapshotStep archives the page text. Failures are logged only.
type SnapshotStep struct {
	Archiver archive.Archiver
}

func (s *SnapshotStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Archiver == nil {
		return nil
	}

	log := logger.FromContext(ctx)
	uri, err := s.Archiver.Save(ctx, state.RunID, state.StartedAt, state.PageText)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to archive page text")
		return nil
	}
	if uri != "" {
		state.SnapshotURI = uri
		log.Info().Str("uri", uri).Msg("Page text archived")
	}
	return nil
}

// Step 3: ExtractStep parses the page text into records.
type ExtractStep struct{}

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	res := extract.Extract(state.PageText)
	state.Extracted = res

	for i, rec := range res.Records() {
		log.Info().Msgf("%2d. %s | %10s | %9s | Nro: %s",
			i+1, rec.Time, report.FormatMoney(rec.Amount), rec.Status, rec.ID)
	}
	log.Info().
		Int("segments", res.Segments).
		Int("accepted", len(res.Accepted)).
		Int("rejected", len(res.Rejected)).
		Int("dropped", res.Dropped()).
		Msg("Transactions extracted")
	return nil
}

// Step 4: AggregateStep buckets the accepted records and totals them.
type AggregateStep struct{}

func (s *AggregateStep) Execute(ctx context.Context, state *PipelineState) error {
	r := report.Aggregate(state.Extracted.Accepted, state.Extracted.Rejected, state.StartedAt)
	state.Report = r

	log := logger.FromContext(ctx)
	log.Info().
		Int("morning_count", r.MorningCount).
		Str("morning_total", report.FormatMoney(r.MorningTotal)).
		Int("afternoon_count", r.AfternoonCount).
		Str("afternoon_total", report.FormatMoney(r.AfternoonTotal)).
		Int("rejected_count", r.RejectedCount).
		Str("grand_total", report.FormatMoney(r.GrandTotal)).
		Msg("Report aggregated")
	return nil
}

// Step 5: NotifyStep sends the report, or the empty-day notice when nothing
// was accepted.
type NotifyStep struct {
	Notifier notify.Notifier
	Merchant report.Merchant
}

func (s *NotifyStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	if state.Report.AcceptedCount == 0 {
		state.Empty = true
		log.Warn().Msg("No transactions found")
		if err := s.Notifier.Send(ctx, report.FormatEmpty(state.StartedAt)); err != nil {
			log.Warn().Err(err).Msg("Failed to send empty-day notice")
		}
		return nil
	}

	if err := s.Notifier.Send(ctx, report.FormatReport(state.Report, s.Merchant)); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	log.Info().Msg("Report sent")
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return &StepError{Step: i + 1, Err: err}
		}
	}
	return nil
}

// StepError wraps the failure of the pipeline step numbered Step (1-based).
type StepError struct {
	Step int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("pipeline step %d failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// NewReportPipeline creates the standard 5-step report pipeline.
func NewReportPipeline(d Deps) *Pipeline {
	return NewPipeline(
		&ScrapeStep{Opener: d.Opener, Navigator: d.Navigator},
		&SnapshotStep{Archiver: d.Archiver},
		&ExtractStep{},
		&AggregateStep{},
		&NotifyStep{Notifier: d.Notifier, Merchant: d.Merchant},
	)
}
