package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dvloznov/redeban-reporter/internal/browser"
	"github.com/dvloznov/redeban-reporter/internal/pipeline"
	"github.com/dvloznov/redeban-reporter/internal/portal"
)

type stepFunc func(ctx context.Context, state *pipeline.PipelineState) error

func (f stepFunc) Execute(ctx context.Context, state *pipeline.PipelineState) error {
	return f(ctx, state)
}

func TestPipeline_StopsAtFirstError(t *testing.T) {
	var ran []int
	step := func(n int, err error) pipeline.PipelineStep {
		return stepFunc(func(context.Context, *pipeline.PipelineState) error {
			ran = append(ran, n)
			return err
		})
	}
	boom := errors.New("boom")

	p := pipeline.NewPipeline(step(1, nil), step(2, boom), step(3, nil))
	err := p.Execute(context.Background(), &pipeline.PipelineState{})

	if !errors.Is(err, boom) {
		t.Fatalf("Execute() error = %v, want boom", err)
	}
	if !strings.Contains(err.Error(), "step 2") {
		t.Errorf("Execute() error = %q, want step index", err)
	}
	if len(ran) != 2 {
		t.Errorf("ran steps %v, want [1 2]", ran)
	}
}

func TestScrapeStep_ClosesPageOnFailure(t *testing.T) {
	page := &MockPage{}
	step := &pipeline.ScrapeStep{
		Opener: &MockOpener{Page: page},
		Navigator: &MockNavigator{RunFunc: func(context.Context, browser.Page) (*portal.Outcome, error) {
			return &portal.Outcome{State: portal.StateFailed}, portal.ErrAuthenticationLayout
		}},
	}
	state := &pipeline.PipelineState{}

	err := step.Execute(context.Background(), state)

	if !errors.Is(err, portal.ErrAuthenticationLayout) {
		t.Fatalf("Execute() error = %v", err)
	}
	if page.closed != 1 {
		t.Errorf("page closed %d times, want 1", page.closed)
	}
	if state.Outcome == nil || state.Outcome.State != portal.StateFailed {
		t.Errorf("Outcome = %+v, want failed outcome kept", state.Outcome)
	}
}

func TestExtractAndAggregateSteps(t *testing.T) {
	state := &pipeline.PipelineState{StartedAt: fixedNow().In(bogota), PageText: pageText}
	ctx := context.Background()

	if err := (&pipeline.ExtractStep{}).Execute(ctx, state); err != nil {
		t.Fatal(err)
	}
	if err := (&pipeline.AggregateStep{}).Execute(ctx, state); err != nil {
		t.Fatal(err)
	}

	r := state.Report
	if r.MorningCount != 1 || r.AfternoonCount != 1 || r.RejectedCount != 1 {
		t.Errorf("report = %+v", r)
	}
	if state.Extracted.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", state.Extracted.Dropped())
	}
	if r.PeriodLabel != "07/03/2026" {
		t.Errorf("PeriodLabel = %q", r.PeriodLabel)
	}
}

func TestSnapshotStep_NilArchiver(t *testing.T) {
	state := &pipeline.PipelineState{}
	if err := (&pipeline.SnapshotStep{}).Execute(context.Background(), state); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if state.SnapshotURI != "" {
		t.Errorf("SnapshotURI = %q", state.SnapshotURI)
	}
}
