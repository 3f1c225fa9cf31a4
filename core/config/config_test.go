package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram:  TelegramConfig{Token: "123:abc"},
		Extractor: ExtractorConfig{APIKey: "key"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run_mode default = %q", cfg.Telegram.RunMode)
	}
	if cfg.Extractor.Model != "gemini-2.0-flash" {
		t.Errorf("model default = %q", cfg.Extractor.Model)
	}
	if cfg.Extractor.TimeoutSeconds != 90 {
		t.Errorf("extractor timeout default = %d", cfg.Extractor.TimeoutSeconds)
	}
	if cfg.Session.Store != StoreMemory {
		t.Errorf("store default = %q", cfg.Session.Store)
	}
	if cfg.Session.MaxFiles != 15 {
		t.Errorf("max_files default = %d", cfg.Session.MaxFiles)
	}
	if cfg.Session.TTLSeconds != 3600 {
		t.Errorf("ttl default = %d", cfg.Session.TTLSeconds)
	}
	if cfg.AgencyName != "Exile Automate" {
		t.Errorf("agency default = %q", cfg.AgencyName)
	}
}

func TestNormalizePollingAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("alias not folded: %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeWebhookRequirements(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	err := Normalize(cfg)
	if err == nil || !strings.Contains(err.Error(), "webhook.url") {
		t.Fatalf("expected webhook.url error, got %v", err)
	}

	cfg = validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	cfg.Webhook = WebhookConfig{URL: "https://bot.example.com/tg", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("valid webhook config rejected: %v", err)
	}
}

func TestNormalizeStoreRequirements(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Store = StorePostgres
	if err := Normalize(cfg); err == nil {
		t.Fatal("postgres store without host must fail")
	}

	cfg = validConfig()
	cfg.Session.Store = StorePostgres
	cfg.Database.Host = "localhost"
	cfg.Database.Name = "flightbot"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("valid postgres config rejected: %v", err)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("sslmode default = %q", cfg.Database.SSLMode)
	}
	if cfg.Database.MaxConnections != 4 {
		t.Errorf("pool default = %d", cfg.Database.MaxConnections)
	}

	cfg = validConfig()
	cfg.Session.Store = StoreRedis
	if err := Normalize(cfg); err == nil {
		t.Fatal("redis store without addr must fail")
	}

	cfg = validConfig()
	cfg.Session.Store = "etcd"
	if err := Normalize(cfg); err == nil {
		t.Fatal("unknown store must fail")
	}
}

func TestNormalizeRequiredSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	if err := Normalize(cfg); err == nil {
		t.Fatal("missing token must fail")
	}

	cfg = validConfig()
	cfg.Extractor.APIKey = ""
	if err := Normalize(cfg); err == nil {
		t.Fatal("missing extractor api key must fail")
	}
}
