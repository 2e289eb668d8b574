// Package config builds the run configuration once at startup from a .env
// file, the environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/browser"
	"github.com/dvloznov/redeban-reporter/internal/portal"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultLoginURL is the portal's login route.
const DefaultLoginURL = "https://www.entrecuentasredeban.com.co/webcopi/#/login"

// Config is everything a run needs. It is built once and passed explicitly.
type Config struct {
	Username     string
	Password     string
	MerchantCode string
	MerchantName string

	TelegramToken   string
	TelegramChatID  string
	TelegramBaseURL string
	NotifyTimeout   time.Duration

	Port     string
	Timezone *time.Location
	LogLevel string

	LoginURL          string
	MerchantPicker    string
	PageSize          string // empty when page-size widening is disabled
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	Headless          bool
	BrowserURL        string
	Delays            portal.Delays

	SnapshotBucket string
	GCPCredentials string
	KafkaBrokers   []string
	KafkaTopic     string
	RedisAddr      string
	RunLockTTL     time.Duration
}

// env maps config keys to the environment variables that may set them. The
// first name is the documented one; later names are accepted aliases.
var env = map[string][]string{
	"username":           {"USUARIO_REDEBAN"},
	"password":           {"CONTRASENA_REDEBAN", "CONTRASEÑA_REDEBAN"},
	"merchant_code":      {"CUC_COMERCIO"},
	"merchant_name":      {"NOMBRE_COMERCIO"},
	"telegram_token":     {"TELEGRAM_TOKEN"},
	"chat_id":            {"CHAT_ID"},
	"telegram_url":       {"TELEGRAM_API_URL"},
	"notify_timeout":     {"NOTIFY_TIMEOUT"},
	"port":               {"PORT"},
	"timezone":           {"TZ_REPORT"},
	"log_level":          {"LOG_LEVEL"},
	"login_url":          {"LOGIN_URL"},
	"merchant_picker":    {"MERCHANT_PICKER_SELECTOR"},
	"page_size":          {"PAGE_SIZE"},
	"widen_page_size":    {"WIDEN_PAGE_SIZE"},
	"navigation_timeout": {"NAVIGATION_TIMEOUT"},
	"action_timeout":     {"ACTION_TIMEOUT"},
	"headless":           {"HEADLESS"},
	"browser_url":        {"BROWSER_WS_URL"},
	"settle.initial":     {"SETTLE_INITIAL"},
	"settle.login":       {"SETTLE_LOGIN"},
	"settle.picker":      {"SETTLE_PICKER"},
	"settle.merchant":    {"SETTLE_MERCHANT"},
	"settle.confirm":     {"SETTLE_CONFIRM"},
	"settle.ledger":      {"SETTLE_LEDGER"},
	"settle.search":      {"SETTLE_SEARCH"},
	"settle.page_size":   {"SETTLE_PAGE_SIZE"},
	"settle.page_menu":   {"SETTLE_PAGE_MENU"},
	"snapshot_bucket":    {"SNAPSHOT_BUCKET"},
	"gcp_credentials":    {"GOOGLE_APPLICATION_CREDENTIALS"},
	"kafka_brokers":      {"KAFKA_BROKERS"},
	"kafka_topic":        {"KAFKA_TOPIC"},
	"redis_addr":         {"REDIS_ADDR"},
	"run_lock_ttl":       {"RUN_LOCK_TTL"},
}

func setDefaults(v *viper.Viper) {
	d := portal.DefaultDelays()

	v.SetDefault("merchant_name", "PANADERIA EL PORTON")
	v.SetDefault("notify_timeout", 10*time.Second)
	v.SetDefault("port", "8080")
	v.SetDefault("timezone", "America/Bogota")
	v.SetDefault("log_level", "info")
	v.SetDefault("login_url", DefaultLoginURL)
	v.SetDefault("merchant_picker", "#mat-input-2")
	v.SetDefault("page_size", "100")
	v.SetDefault("widen_page_size", true)
	v.SetDefault("navigation_timeout", 60*time.Second)
	v.SetDefault("action_timeout", 30*time.Second)
	v.SetDefault("headless", true)
	v.SetDefault("settle.initial", d.Initial)
	v.SetDefault("settle.login", d.Login)
	v.SetDefault("settle.picker", d.Picker)
	v.SetDefault("settle.merchant", d.Merchant)
	v.SetDefault("settle.confirm", d.Confirm)
	v.SetDefault("settle.ledger", d.Ledger)
	v.SetDefault("settle.search", d.Search)
	v.SetDefault("settle.page_size", d.PageSize)
	v.SetDefault("settle.page_menu", d.PageSizeMenu)
	v.SetDefault("kafka_topic", "redeban.run_completed")
	v.SetDefault("run_lock_ttl", 15*time.Minute)
}

// Load reads .env (if present), then the optional YAML file at path, then the
// environment, which wins over the file.
func Load(path string) (*Config, error) {
	// A missing .env is normal in deployed environments.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	for key, names := range env {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("config.Load: bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	}

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("config.Load: timezone %q: %w", v.GetString("timezone"), err)
	}

	cfg := &Config{
		Username:        v.GetString("username"),
		Password:        v.GetString("password"),
		MerchantCode:    v.GetString("merchant_code"),
		MerchantName:    v.GetString("merchant_name"),
		TelegramToken:   v.GetString("telegram_token"),
		TelegramChatID:  v.GetString("chat_id"),
		TelegramBaseURL: v.GetString("telegram_url"),
		NotifyTimeout:   v.GetDuration("notify_timeout"),

		Port:     v.GetString("port"),
		Timezone: loc,
		LogLevel: v.GetString("log_level"),

		LoginURL:          v.GetString("login_url"),
		MerchantPicker:    v.GetString("merchant_picker"),
		PageSize:          pageSize(v),
		NavigationTimeout: v.GetDuration("navigation_timeout"),
		ActionTimeout:     v.GetDuration("action_timeout"),
		Headless:          v.GetBool("headless"),
		BrowserURL:        v.GetString("browser_url"),
		Delays: portal.Delays{
			Initial:      v.GetDuration("settle.initial"),
			Login:        v.GetDuration("settle.login"),
			Picker:       v.GetDuration("settle.picker"),
			Merchant:     v.GetDuration("settle.merchant"),
			Confirm:      v.GetDuration("settle.confirm"),
			Ledger:       v.GetDuration("settle.ledger"),
			Search:       v.GetDuration("settle.search"),
			PageSizeMenu: v.GetDuration("settle.page_menu"),
			PageSize:     v.GetDuration("settle.page_size"),
		},

		SnapshotBucket: v.GetString("snapshot_bucket"),
		GCPCredentials: v.GetString("gcp_credentials"),
		KafkaBrokers:   splitList(v.GetString("kafka_brokers")),
		KafkaTopic:     v.GetString("kafka_topic"),
		RedisAddr:      v.GetString("redis_addr"),
		RunLockTTL:     v.GetDuration("run_lock_ttl"),
	}

	return cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"USUARIO_REDEBAN", c.Username},
		{"CONTRASENA_REDEBAN", c.Password},
		{"CUC_COMERCIO", c.MerchantCode},
		{"TELEGRAM_TOKEN", c.TelegramToken},
		{"CHAT_ID", c.TelegramChatID},
	}

	var errs []error
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.name))
		}
	}
	return errors.Join(errs...)
}

// Sequencer returns the portal settings derived from the configuration.
func (c *Config) Sequencer() portal.Settings {
	return portal.Settings{
		LoginURL:          c.LoginURL,
		Username:          c.Username,
		Password:          c.Password,
		MerchantCode:      c.MerchantCode,
		MerchantPicker:    c.MerchantPicker,
		PageSize:          c.PageSize,
		NavigationTimeout: c.NavigationTimeout,
		Delays:            c.Delays,
	}
}

// Browser returns the session driver options.
func (c *Config) Browser() browser.Options {
	return browser.Options{
		RemoteURL:     c.BrowserURL,
		Headless:      c.Headless,
		ActionTimeout: c.ActionTimeout,
	}
}

func pageSize(v *viper.Viper) string {
	if !v.GetBool("widen_page_size") {
		return ""
	}
	return v.GetString("page_size")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
