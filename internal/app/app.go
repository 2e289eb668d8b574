// Package app wires a Config into a ready report runner.
package app

import (
	"context"

	"github.com/dvloznov/redeban-reporter/internal/archive"
	"github.com/dvloznov/redeban-reporter/internal/browser"
	"github.com/dvloznov/redeban-reporter/internal/config"
	"github.com/dvloznov/redeban-reporter/internal/events"
	"github.com/dvloznov/redeban-reporter/internal/events/kafka"
	"github.com/dvloznov/redeban-reporter/internal/notify"
	"github.com/dvloznov/redeban-reporter/internal/pipeline"
	"github.com/dvloznov/redeban-reporter/internal/portal"
	"github.com/dvloznov/redeban-reporter/internal/report"
	"github.com/dvloznov/redeban-reporter/internal/runlock"
	"github.com/rs/zerolog"
)

// Deps builds the runner dependencies for cfg. Optional integrations that
// are not configured, or whose backend cannot be reached, fall back to
// no-ops. The returned cleanup releases whatever was opened.
func Deps(ctx context.Context, cfg *config.Config, log zerolog.Logger) (pipeline.Deps, func()) {
	var closers []func() error

	d := pipeline.Deps{
		Opener:    browser.NewChromeOpener(cfg.Browser()),
		Navigator: portal.NewStandardSequencer(cfg.Sequencer()),
		Notifier: notify.NewTelegramNotifier(
			cfg.TelegramBaseURL, cfg.TelegramToken, cfg.TelegramChatID, cfg.NotifyTimeout),
		Archiver: archive.Noop{},
		Events:   events.Noop{},
		Locker:   runlock.Noop{},
		Merchant: report.Merchant{Name: cfg.MerchantName, Code: cfg.MerchantCode},
		Location: cfg.Timezone,
	}

	if cfg.SnapshotBucket != "" {
		d.Archiver = archive.NewGCSArchiver(cfg.SnapshotBucket, cfg.GCPCredentials)
		log.Info().Str("bucket", cfg.SnapshotBucket).Msg("Page snapshots enabled")
	}

	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		d.Events = p
		closers = append(closers, p.Close)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", p.Topic()).Msg("Run events enabled")
	}

	if cfg.RedisAddr != "" {
		client, err := runlock.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, run lock disabled")
		} else {
			d.Locker = runlock.NewRedisLocker(client, cfg.RunLockTTL)
			closers = append(closers, client.Close)
			log.Info().Str("addr", cfg.RedisAddr).Msg("Run lock enabled")
		}
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn().Err(err).Msg("Cleanup failed")
			}
		}
	}
	return d, cleanup
}
