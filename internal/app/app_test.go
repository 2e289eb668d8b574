package app

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/archive"
	"github.com/dvloznov/redeban-reporter/internal/config"
	"github.com/dvloznov/redeban-reporter/internal/events"
	"github.com/dvloznov/redeban-reporter/internal/events/kafka"
	"github.com/dvloznov/redeban-reporter/internal/runlock"
	"github.com/rs/zerolog"
)

func baseConfig() *config.Config {
	return &config.Config{
		MerchantCode:  "12345678",
		MerchantName:  "TIENDA",
		TelegramToken: "t",
		Timezone:      time.UTC,
		PageSize:      "100",
	}
}

func TestDeps_OptionalIntegrationsOff(t *testing.T) {
	d, cleanup := Deps(context.Background(), baseConfig(), zerolog.Nop())
	defer cleanup()

	if _, ok := d.Archiver.(archive.Noop); !ok {
		t.Errorf("Archiver = %T, want archive.Noop", d.Archiver)
	}
	if _, ok := d.Events.(events.Noop); !ok {
		t.Errorf("Events = %T, want events.Noop", d.Events)
	}
	if _, ok := d.Locker.(runlock.Noop); !ok {
		t.Errorf("Locker = %T, want runlock.Noop", d.Locker)
	}
	if d.Merchant.Code != "12345678" || d.Merchant.Name != "TIENDA" {
		t.Errorf("Merchant = %+v", d.Merchant)
	}
}

func TestDeps_OptionalIntegrationsOn(t *testing.T) {
	cfg := baseConfig()
	cfg.SnapshotBucket = "snapshots"
	cfg.KafkaBrokers = []string{"localhost:9092"}
	cfg.RedisAddr = "127.0.0.1:1" // unreachable: lock falls back to no-op

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d, cleanup := Deps(ctx, cfg, zerolog.Nop())
	defer cleanup()

	if _, ok := d.Archiver.(*archive.GCSArchiver); !ok {
		t.Errorf("Archiver = %T, want *archive.GCSArchiver", d.Archiver)
	}
	if _, ok := d.Events.(*kafka.Publisher); !ok {
		t.Errorf("Events = %T, want *kafka.Publisher", d.Events)
	}
	if _, ok := d.Locker.(runlock.Noop); !ok {
		t.Errorf("Locker = %T, want runlock.Noop", d.Locker)
	}
}
