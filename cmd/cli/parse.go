package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/archive"
	"github.com/dvloznov/redeban-reporter/internal/config"
	"github.com/dvloznov/redeban-reporter/internal/extract"
	"github.com/dvloznov/redeban-reporter/internal/report"
	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Replay saved ledger text through the extractor and formatter",
		Long: `Reads page text from a local file, stdin ("-") or a gs:// snapshot
and prints the parsed records followed by the report message. No browser is
started and nothing is sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			file, _ := cmd.Flags().GetString("file")
			text, err := readPageText(cmd.Context(), cfg, file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			runAt := time.Now().In(cfg.Timezone)
			if at, _ := cmd.Flags().GetString("date"); at != "" {
				runAt, err = time.ParseInLocation("2006-01-02", at, cfg.Timezone)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}

			return printReport(cmd.OutOrStdout(), text, runAt,
				report.Merchant{Name: cfg.MerchantName, Code: cfg.MerchantCode})
		},
	}

	cmd.Flags().StringP("file", "f", "", "Page text file, '-' for stdin, or gs:// URI")
	cmd.Flags().String("date", "", "Report date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readPageText(ctx context.Context, cfg *config.Config, file string, stdin io.Reader) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil

	case strings.HasPrefix(file, "gs://"):
		data, err := archive.NewGCSArchiver("", cfg.GCPCredentials).Fetch(ctx, file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return string(data), nil
}

func printReport(w io.Writer, text string, runAt time.Time, m report.Merchant) error {
	res := extract.Extract(text)

	for i, rec := range res.Records() {
		fmt.Fprintf(w, "%2d. %s %s | %10s | %9s | Nro: %s\n",
			i+1, rec.Date, rec.Time, report.FormatMoney(rec.Amount), rec.Status, rec.ID)
	}
	fmt.Fprintf(w, "segments=%d accepted=%d rejected=%d dropped=%d\n\n",
		res.Segments, len(res.Accepted), len(res.Rejected), res.Dropped())

	if len(res.Accepted) == 0 {
		_, err := fmt.Fprintln(w, report.FormatEmpty(runAt))
		return err
	}

	r := report.Aggregate(res.Accepted, res.Rejected, runAt)
	_, err := fmt.Fprintln(w, report.FormatReport(r, m))
	return err
}
