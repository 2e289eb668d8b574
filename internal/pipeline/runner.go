package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/archive"
	"github.com/dvloznov/redeban-reporter/internal/browser"
	"github.com/dvloznov/redeban-reporter/internal/domain"
	"github.com/dvloznov/redeban-reporter/internal/events"
	"github.com/dvloznov/redeban-reporter/internal/logger"
	"github.com/dvloznov/redeban-reporter/internal/notify"
	"github.com/dvloznov/redeban-reporter/internal/portal"
	"github.com/dvloznov/redeban-reporter/internal/report"
	"github.com/dvloznov/redeban-reporter/internal/runlock"
	"github.com/google/uuid"
)

// Result messages reported to the caller.
const (
	MsgSent         = "Informe enviado"
	MsgDeliveryFail = "Error al enviar Telegram"
	MsgEmpty        = "No se encontraron transacciones"
	MsgNoData       = "No se pudo extraer datos"
	MsgFailed       = "Error en bot Redeban"
	MsgInProgress   = "Ejecución en curso"
)

const publishTimeout = 10 * time.Second

// ErrPanicked marks a run aborted by a panic.
var ErrPanicked = errors.New("run panicked")

// Deps are the collaborators of a run. Archiver, Events and Locker are
// optional.
type Deps struct {
	Opener    browser.Opener
	Navigator Navigator
	Notifier  notify.Notifier
	Archiver  archive.Archiver
	Events    events.Publisher
	Locker    runlock.Locker
	Merchant  report.Merchant
	Location  *time.Location

	Now   func() time.Time
	NewID func() string
}

// Runner executes one report run end to end. Every outcome, including
// failures, becomes a PipelineResult.
type Runner struct {
	pipeline *Pipeline
	deps     Deps
}

// NewRunner fills in defaults for the optional dependencies.
func NewRunner(d Deps) *Runner {
	if d.Archiver == nil {
		d.Archiver = archive.Noop{}
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Locker == nil {
		d.Locker = runlock.Noop{}
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return &Runner{pipeline: NewReportPipeline(d), deps: d}
}

// Run executes a run under a fresh ID.
func (r *Runner) Run(ctx context.Context) domain.PipelineResult {
	return r.RunWithID(ctx, r.deps.NewID())
}

// RunWithID executes a run whose logs and events carry runID.
func (r *Runner) RunWithID(ctx context.Context, runID string) domain.PipelineResult {
	result, _ := r.Execute(ctx, runID)
	return result
}

// Execute is RunWithID for callers that must tell a crashed run from a failed
// one. A panic is reported like any fatal error and then returned wrapped in
// ErrPanicked.
func (r *Runner) Execute(ctx context.Context, runID string) (domain.PipelineResult, error) {
	ctx = logger.WithRun(ctx, runID)
	log := logger.FromContext(ctx)

	state := &PipelineState{
		RunID:     runID,
		StartedAt: r.deps.Now().In(r.deps.Location),
	}
	log.Info().Time("started_at", state.StartedAt).Msg("Run started")

	release, err := r.deps.Locker.Acquire(ctx, runlock.DefaultKey)
	switch {
	case errors.Is(err, runlock.ErrLocked):
		log.Warn().Msg("Another run holds the lock")
		return domain.PipelineResult{Success: false, Message: MsgInProgress}, nil
	case err != nil:
		log.Warn().Err(err).Msg("Run lock unavailable, continuing without it")
	default:
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("Failed to release run lock")
			}
		}()
	}

	err = r.execute(ctx, state)
	result := r.result(ctx, state, err)
	r.publish(ctx, state, result)

	log.Info().
		Bool("success", result.Success).
		Str("message", result.Message).
		Dur("elapsed", r.deps.Now().Sub(state.StartedAt)).
		Msg("Run finished")

	if errors.Is(err, ErrPanicked) {
		return result, err
	}
	return result, nil
}

func (r *Runner) execute(ctx context.Context, state *PipelineState) (err error) {
	defer func() {
		if p := recover(); p != nil {
			log := logger.FromContext(ctx)
			log.Error().Interface("panic", p).Bytes("stack", debug.Stack()).Msg("Run panicked")
			err = fmt.Errorf("%w: %v", ErrPanicked, p)
		}
	}()
	return r.pipeline.Execute(ctx, state)
}

// cause drops the pipeline and portal step wrappers so the chat notice
// starts with the failure itself.
func cause(err error) error {
	var portalErr *portal.StepError
	if errors.As(err, &portalErr) {
		return portalErr.Err
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Err
	}
	return err
}

func (r *Runner) result(ctx context.Context, state *PipelineState, err error) domain.PipelineResult {
	log := logger.FromContext(ctx)

	switch {
	case err == nil && state.Empty:
		return domain.PipelineResult{Success: false, Message: MsgEmpty}

	case err == nil:
		return domain.PipelineResult{
			Success:      true,
			Message:      MsgSent,
			Transactions: state.Report.AcceptedCount,
		}

	case errors.Is(err, notify.ErrDeliveryFailed):
		log.Error().Err(err).Msg("Report delivery failed")
		return domain.PipelineResult{Success: false, Message: MsgDeliveryFail, Error: err.Error()}
	}

	log.Error().Err(err).Msg("Run failed")

	// The run context may already be cancelled; the error notice still goes out.
	if sendErr := r.deps.Notifier.Send(context.WithoutCancel(ctx), report.FormatError(cause(err))); sendErr != nil {
		log.Warn().Err(sendErr).Msg("Failed to send error notice")
	}

	msg := MsgFailed
	if errors.Is(err, portal.ErrExtractionUnavailable) {
		msg = MsgNoData
	}
	return domain.PipelineResult{Success: false, Message: msg, Error: err.Error()}
}

func (r *Runner) publish(ctx context.Context, state *PipelineState, result domain.PipelineResult) {
	event := events.RunCompleted{
		RunID:        state.RunID,
		MerchantCode: r.deps.Merchant.Code,
		Success:      result.Success,
		Message:      result.Message,
		Error:        result.Error,
		Accepted:     state.Report.AcceptedCount,
		Rejected:     state.Report.RejectedCount,
		GrandTotal:   state.Report.GrandTotal,
		StartedAt:    state.StartedAt,
		FinishedAt:   r.deps.Now().In(r.deps.Location),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := r.deps.Events.Publish(ctx, event); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Failed to publish run event")
	}
}
