package app

import (
	"context"
	"testing"

	"pdbot/internal/config"
)

func validBase() *config.Config {
	return &config.Config{
		Discord:  config.DiscordConfig{Token: "abc", GuildID: "1"},
		Decksite: config.DecksiteConfig{BaseURL: "https://pennydreadfulmagic.com"},
	}
}

func TestValidateConfig(t *testing.T) {
	ctx := context.Background()

	if err := validateConfig(ctx, validBase()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing token", func(c *config.Config) { c.Discord.Token = "" }},
		{"missing base url", func(c *config.Config) { c.Decksite.BaseURL = "" }},
		{"bad timeout", func(c *config.Config) { c.Decksite.Timeout = "soon" }},
		{"bad reboot poll", func(c *config.Config) { c.Reboot.Poll = "-5s" }},
		{"bad cron spec", func(c *config.Config) { c.Bugs.RefreshSpec = "every day" }},
		{"bad github repo", func(c *config.Config) {
			c.Github = &config.GithubConfig{Enabled: true, Token: "t", Repo: "nodash"}
		}},
		{"negative total runs", func(c *config.Config) { c.Rotation.TotalRuns = -1 }},
		{"bad storage busy timeout", func(c *config.Config) {
			c.Storage = &config.StorageConfig{Driver: "sqlite", Path: "x", BusyTimeout: "nope"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			tt.mutate(cfg)
			if err := validateConfig(ctx, cfg); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestRebootFlagKeyDefault(t *testing.T) {
	cfg := validBase()
	if got := rebootFlagKey(cfg); got != "pdbot:do_reboot" {
		t.Fatalf("default flag key = %q", got)
	}
	cfg.Reboot.FlagKey = "custom:key"
	if got := rebootFlagKey(cfg); got != "custom:key" {
		t.Fatalf("flag key = %q", got)
	}
}

func TestMapLoggingConfig(t *testing.T) {
	cfg := validBase()
	cfg.Logging = config.LoggingConfig{
		Level:   "debug",
		Console: true,
		Discord: config.LoggingDiscord{Enabled: true, MinLevel: "warn", RatePerSec: 2},
	}
	lc := mapLoggingConfig(cfg)
	if lc.Level != "debug" || !lc.Console || !lc.Discord.Enabled || lc.Discord.RatePerSec != 2 {
		t.Fatalf("mapped logging config = %+v", lc)
	}
}
