package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/domain"
)

// maxErrorLen bounds the error text sent to the chat.
const maxErrorLen = 100

// Merchant identifies the store in the report header.
type Merchant struct {
	Name string
	Code string
}

// FormatReport renders the full daily report in Telegram's HTML subset.
func FormatReport(r domain.AggregateReport, m Merchant) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>INFORME QR COMPLETO - %s</b>\n", html.EscapeString(r.PeriodLabel))
	fmt.Fprintf(&b, "🏐 %s\n", html.EscapeString(m.Name))
	fmt.Fprintf(&b, "📐 CUC: %s\n\n", html.EscapeString(m.Code))

	fmt.Fprintf(&b, "<b>MAÑANA (00:00-%s)</b>\n", Cutoff())
	fmt.Fprintf(&b, " Transacciones: %d\n", r.MorningCount)
	fmt.Fprintf(&b, " Total: <b>%s</b>\n\n", FormatMoney(r.MorningTotal))

	fmt.Fprintf(&b, "<b>TARDE (%s-23:59)</b>\n", Cutoff())
	fmt.Fprintf(&b, " Transacciones: %d\n", r.AfternoonCount)
	fmt.Fprintf(&b, " Total: <b>%s</b>\n\n", FormatMoney(r.AfternoonTotal))

	if r.RejectedCount > 0 {
		fmt.Fprintf(&b, "<b>TRANSACCIONES RECHAZADAS (%d)</b>\n", r.RejectedCount)
		fmt.Fprintf(&b, " Monto: %s <i>(Excluidas del total)</i>\n\n", FormatMoney(r.RejectedTotal))
	}

	b.WriteString("<b>RESUMEN DEL DÍA</b>\n")
	fmt.Fprintf(&b, " Total Transacciones (Válidas): %d\n", r.AcceptedCount)
	fmt.Fprintf(&b, " Monto Total: <b>%s</b>", FormatMoney(r.GrandTotal))

	return b.String()
}

// FormatEmpty renders the message sent when no accepted transaction was found.
func FormatEmpty(runAt time.Time) string {
	return fmt.Sprintf("<b>Sin transacciones - %s</b>\nNo se encontraron transacciones en Redeban para hoy.",
		runAt.Format("02/01/2006 15:04"))
}

// FormatError renders a failed run, keeping at most maxErrorLen characters of err.
func FormatError(err error) string {
	msg := []rune(err.Error())
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	return "Error en bot Redeban: " + html.EscapeString(string(msg))
}
