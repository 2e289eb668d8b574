// Package portal drives the merchant portal from the login page to the
// rendered transaction ledger.
package portal

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/browser"
	"github.com/dvloznov/redeban-reporter/internal/logger"
)

// State is a position in the navigation sequence.
type State string

const (
	StateStart             State = "start"
	StateLoggingIn         State = "logging_in"
	StateSelectingMerchant State = "selecting_merchant"
	StateOpeningLedger     State = "opening_ledger"
	StateSearching         State = "searching"
	StateWideningPageSize  State = "widening_page_size"
	StateExtractReady      State = "extract_ready"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// Step is one stage of the sequence. Returning an error wrapping
// ErrStepSkipped lets the sequence continue; any other error fails the run.
type Step interface {
	State() State
	Execute(ctx context.Context, page browser.Page, out *Outcome) error
}

// Outcome is what a sequence run produced.
type Outcome struct {
	State     State   // final state, StateDone or StateFailed
	Visited   []State // states entered, in order
	Skipped   []State // optional states that did not complete
	PageText  string  // ledger container text, set by the extract step
	Container string  // which lookup strategy found the container
}

// Sequencer runs its steps in order against one page.
type Sequencer struct {
	steps []Step
}

// NewSequencer creates a sequencer with the given steps.
func NewSequencer(steps ...Step) *Sequencer {
	return &Sequencer{steps: steps}
}

// Delays are the settle waits after each UI action. They are lower bounds
// for the portal to re-render, not guarantees.
type Delays struct {
	Initial      time.Duration // after the login page loads
	Login        time.Duration // after submitting credentials
	Picker       time.Duration // after opening the merchant picker
	Merchant     time.Duration // after choosing the merchant
	Confirm      time.Duration // after ACEPTAR
	Ledger       time.Duration // after opening Consulta Transacciones
	Search       time.Duration // after Buscar
	PageSizeMenu time.Duration // after opening the page size selector
	PageSize     time.Duration // after choosing the page size
}

// DefaultDelays mirror the waits the portal has been observed to need.
func DefaultDelays() Delays {
	return Delays{
		Initial:      5 * time.Second,
		Login:        10 * time.Second,
		Picker:       3 * time.Second,
		Merchant:     2 * time.Second,
		Confirm:      6 * time.Second,
		Ledger:       5 * time.Second,
		Search:       8 * time.Second,
		PageSizeMenu: time.Second,
		PageSize:     4 * time.Second,
	}
}

// Settings configure the standard sequence.
type Settings struct {
	LoginURL          string
	Username          string
	Password          string
	MerchantCode      string
	MerchantPicker    string // CSS selector of the merchant picker input
	PageSize          string // empty disables page-size widening
	NavigationTimeout time.Duration
	Delays            Delays
}

// NewStandardSequencer builds login → merchant → ledger → search →
// page size → extract.
func NewStandardSequencer(s Settings) *Sequencer {
	steps := []Step{
		&LoginStep{
			URL:        s.LoginURL,
			Username:   s.Username,
			Password:   s.Password,
			NavTimeout: s.NavigationTimeout,
			Initial:    s.Delays.Initial,
			After:      s.Delays.Login,
		},
		&SelectMerchantStep{
			Picker:       s.MerchantPicker,
			Code:         s.MerchantCode,
			AfterPicker:  s.Delays.Picker,
			AfterOption:  s.Delays.Merchant,
			AfterConfirm: s.Delays.Confirm,
		},
		&OpenLedgerStep{After: s.Delays.Ledger},
		&SearchStep{After: s.Delays.Search},
	}
	if s.PageSize != "" {
		steps = append(steps, &WidenPageSizeStep{
			Size:      s.PageSize,
			AfterOpen: s.Delays.PageSizeMenu,
			After:     s.Delays.PageSize,
		})
	}
	steps = append(steps, &ExtractStep{})

	return NewSequencer(steps...)
}

// Run executes every step. The returned Outcome is never nil; on failure its
// State is StateFailed and the error names the state that failed.
func (q *Sequencer) Run(ctx context.Context, page browser.Page) (*Outcome, error) {
	log := logger.FromContext(ctx)
	out := &Outcome{State: StateStart}

	for _, step := range q.steps {
		out.State = step.State()
		out.Visited = append(out.Visited, out.State)
		log.Info().Str("state", string(out.State)).Msg("Entering portal state")

		err := step.Execute(ctx, page, out)
		if err == nil {
			continue
		}

		if errors.Is(err, ErrStepSkipped) && ctx.Err() == nil {
			log.Warn().Err(err).Str("state", string(out.State)).Msg("Optional portal step skipped")
			out.Skipped = append(out.Skipped, out.State)
			continue
		}

		failed := out.State
		out.State = StateFailed
		log.Error().Err(err).Str("state", string(failed)).Msg("Portal sequence failed")
		return out, &StepError{State: failed, Err: err}
	}

	out.State = StateDone
	return out, nil
}
