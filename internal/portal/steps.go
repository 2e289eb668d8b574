package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/browser"
	"github.com/dvloznov/redeban-reporter/internal/logger"
)

// LoginStep opens the login page and submits the credentials. Every failure
// here is fatal.
type LoginStep struct {
	URL        string
	Username   string
	Password   string
	NavTimeout time.Duration
	Initial    time.Duration
	After      time.Duration
}

func (s *LoginStep) State() State { return StateLoggingIn }

func (s *LoginStep) Execute(ctx context.Context, page browser.Page, _ *Outcome) error {
	log := logger.FromContext(ctx)

	log.Info().Str("url", s.URL).Msg("Opening portal")
	if err := page.Navigate(ctx, s.URL, s.NavTimeout); err != nil {
		return err
	}
	if err := page.Settle(ctx, s.Initial); err != nil {
		return err
	}

	inputs, err := page.QueryAll(ctx, browser.CSS("input"))
	if err != nil {
		return fmt.Errorf("query login inputs: %w", err)
	}
	if len(inputs) < 2 {
		return fmt.Errorf("%w: found %d input fields, need 2", ErrAuthenticationLayout, len(inputs))
	}

	log.Info().Msg("Filling credentials")
	if err := page.Fill(ctx, inputs[0], s.Username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	if err := page.Fill(ctx, inputs[1], s.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}

	btn, _, err := FirstMatch(ctx, page, BySelector("login button", browser.HasText("button", "Ingresar")))
	if err != nil {
		return fmt.Errorf("%w: Ingresar button: %w", ErrAuthenticationLayout, err)
	}
	if err := page.Click(ctx, btn, browser.ClickOptions{}); err != nil {
		return fmt.Errorf("click Ingresar: %w", err)
	}

	return page.Settle(ctx, s.After)
}

// SelectMerchantStep picks the configured merchant. A missing option or
// confirmation is a skip; the merchant is often preselected.
type SelectMerchantStep struct {
	Picker       string
	Code         string
	AfterPicker  time.Duration
	AfterOption  time.Duration
	AfterConfirm time.Duration
}

func (s *SelectMerchantStep) State() State { return StateSelectingMerchant }

func (s *SelectMerchantStep) Execute(ctx context.Context, page browser.Page, _ *Outcome) error {
	picker, _, err := FirstMatch(ctx, page, BySelector("merchant picker", browser.CSS(s.Picker)))
	if err != nil {
		return skippedf("merchant picker %q: %w", s.Picker, err)
	}
	if err := page.Click(ctx, picker, browser.ClickOptions{}); err != nil {
		return skippedf("open merchant picker: %w", err)
	}
	if err := page.Settle(ctx, s.AfterPicker); err != nil {
		return err
	}

	var missing []string

	option, _, err := FirstMatch(ctx, page, BySelector("merchant option", browser.OwnText(s.Code)))
	switch {
	case err != nil:
		missing = append(missing, fmt.Sprintf("merchant option %q", s.Code))
	default:
		if err := page.Click(ctx, option, browser.ClickOptions{Force: true}); err != nil {
			return skippedf("click merchant %q: %w", s.Code, err)
		}
		if err := page.Settle(ctx, s.AfterOption); err != nil {
			return err
		}
	}

	confirm, _, err := FirstMatch(ctx, page, BySelector("confirm button", browser.HasText("button", "ACEPTAR")))
	switch {
	case err != nil:
		missing = append(missing, "ACEPTAR button")
	default:
		if err := page.Click(ctx, confirm, browser.ClickOptions{Force: true}); err != nil {
			return skippedf("click ACEPTAR: %w", err)
		}
		if err := page.Settle(ctx, s.AfterConfirm); err != nil {
			return err
		}
	}

	if len(missing) > 0 {
		return skippedf("not found: %s", strings.Join(missing, ", "))
	}
	return nil
}

// OpenLedgerStep opens "Consulta Transacciones". The view may already be open.
type OpenLedgerStep struct {
	After time.Duration
}

func (s *OpenLedgerStep) State() State { return StateOpeningLedger }

func (s *OpenLedgerStep) Execute(ctx context.Context, page browser.Page, _ *Outcome) error {
	link, _, err := FirstMatch(ctx, page, BySelector("ledger link", browser.OwnText("Consulta Transacciones")))
	if err != nil {
		return skippedf("Consulta Transacciones: %w", err)
	}
	if err := page.Click(ctx, link, browser.ClickOptions{}); err != nil {
		return skippedf("click Consulta Transacciones: %w", err)
	}
	return page.Settle(ctx, s.After)
}

// SearchStep presses the first "Buscar" button, if any.
type SearchStep struct {
	After time.Duration
}

func (s *SearchStep) State() State { return StateSearching }

func (s *SearchStep) Execute(ctx context.Context, page browser.Page, _ *Outcome) error {
	btn, _, err := FirstMatch(ctx, page, BySelector("search button", browser.HasText("button", "Buscar")))
	if err != nil {
		return skippedf("Buscar button: %w", err)
	}
	if err := page.Click(ctx, btn, browser.ClickOptions{Force: true}); err != nil {
		return skippedf("click Buscar: %w", err)
	}
	return page.Settle(ctx, s.After)
}

// WidenPageSizeStep asks the paginator for Size rows per page. Every failure
// is a skip.
type WidenPageSizeStep struct {
	Size      string
	AfterOpen time.Duration
	After     time.Duration
}

func (s *WidenPageSizeStep) State() State { return StateWideningPageSize }

func (s *WidenPageSizeStep) Execute(ctx context.Context, page browser.Page, _ *Outcome) error {
	sizeSelect, _, err := FirstMatch(ctx, page,
		BySelector("paginator select", browser.CSS("mat-paginator mat-select")),
		BySelector("paginator combobox", browser.CSS(`mat-paginator [role="combobox"]`)),
	)
	if err != nil {
		return skippedf("page size selector: %w", err)
	}
	if err := page.Click(ctx, sizeSelect, browser.ClickOptions{Force: true}); err != nil {
		return skippedf("open page size selector: %w", err)
	}
	if err := page.Settle(ctx, s.AfterOpen); err != nil {
		return err
	}

	valueSel := browser.CSS(fmt.Sprintf(
		`mat-option[value="%[1]s"], [role="option"][value="%[1]s"], mat-option[ng-reflect-value="%[1]s"]`, s.Size))

	option, strategy, err := FirstMatch(ctx, page,
		BySelector("option by value", valueSel),
		ByTextScan("option by text", browser.CSS(`mat-option, [role="option"]`), s.Size),
	)
	if err != nil {
		return skippedf("page size option %s: %w", s.Size, err)
	}
	if err := page.Click(ctx, option, browser.ClickOptions{Force: true}); err != nil {
		return skippedf("click page size option: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().Str("size", s.Size).Str("strategy", strategy).Msg("Page size widened")
	return page.Settle(ctx, s.After)
}

// ExtractStep reads the text of the ledger container, falling back to the
// whole body.
type ExtractStep struct{}

func (s *ExtractStep) State() State { return StateExtractReady }

func (s *ExtractStep) Execute(ctx context.Context, page browser.Page, out *Outcome) error {
	container, strategy, err := FirstMatch(ctx, page,
		BySelector("main region", browser.CSS(`div[role="main"]`)),
		BySelector("body", browser.CSS("body")),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtractionUnavailable, err)
	}

	text, err := page.Text(ctx, container)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrExtractionUnavailable, strategy, err)
	}

	out.PageText = text
	out.Container = strategy
	log := logger.FromContext(ctx)
	log.Info().Str("container", strategy).Int("chars", len(text)).Msg("Ledger text captured")
	return nil
}
