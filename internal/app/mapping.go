package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"pdbot/internal/config"
	"pdbot/internal/storage"
	logx "pdbot/pkg/logx"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Discord: logx.DiscordConfig{
			Enabled:    cfg.Logging.Discord.Enabled,
			MinLevel:   cfg.Logging.Discord.MinLevel,
			RatePerSec: cfg.Logging.Discord.RatePerSec,
		},
	}
}

func mapStorageConfig(sc *config.StorageConfig) (storage.Config, error) {
	busy, err := config.DurationOr("storage.busy_timeout", sc.BusyTimeout, 5*time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      sc.Driver,
		Path:        sc.Path,
		BusyTimeout: busy,
	}, nil
}

func rebootFlagKey(cfg *config.Config) string {
	if key := strings.TrimSpace(cfg.Reboot.FlagKey); key != "" {
		return key
	}
	return "pdbot:do_reboot"
}

// validateConfig runs before a hot-reloaded config is committed so a bad
// edit never replaces a working one.
func validateConfig(ctx context.Context, cfg *config.Config) error {
	if strings.TrimSpace(cfg.Discord.Token) == "" {
		return fmt.Errorf("discord.token is required")
	}
	if strings.TrimSpace(cfg.Decksite.BaseURL) == "" {
		return fmt.Errorf("decksite.base_url is required")
	}
	if _, err := config.Duration("decksite.timeout", cfg.Decksite.Timeout); err != nil {
		return err
	}
	if _, err := config.Duration("reboot.poll", cfg.Reboot.Poll); err != nil {
		return err
	}
	if cfg.Storage != nil {
		if _, err := mapStorageConfig(cfg.Storage); err != nil {
			return err
		}
	}
	if cfg.Github != nil && cfg.Github.Enabled {
		if owner, name, ok := strings.Cut(cfg.Github.Repo, "/"); !ok || owner == "" || name == "" {
			return fmt.Errorf("github.repo must be owner/name, got %q", cfg.Github.Repo)
		}
	}
	if spec := strings.TrimSpace(cfg.Bugs.RefreshSpec); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("bugs.refresh_spec: %w", err)
		}
	}
	if cfg.Rotation.TotalRuns < 0 {
		return fmt.Errorf("rotation.total_runs must be >= 0")
	}
	return nil
}
