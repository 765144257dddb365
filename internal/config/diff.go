package config

import (
	"reflect"
	"sort"
	"strings"

	logx "pdbot/pkg/logx"
)

// SummarizeConfigChange returns a compact list of changed sections plus safe
// structured attrs for logging (never includes secrets like tokens).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 20)

	// Discord (never log token)
	if strings.TrimSpace(oldCfg.Discord.GuildID) != strings.TrimSpace(newCfg.Discord.GuildID) ||
		!reflect.DeepEqual(oldCfg.Discord.OwnerUserIDs, newCfg.Discord.OwnerUserIDs) ||
		strings.TrimSpace(oldCfg.Discord.GeneralChannelID) != strings.TrimSpace(newCfg.Discord.GeneralChannelID) ||
		strings.TrimSpace(oldCfg.Discord.TournamentChannelID) != strings.TrimSpace(newCfg.Discord.TournamentChannelID) ||
		strings.TrimSpace(oldCfg.Discord.RotationHypeChannelID) != strings.TrimSpace(newCfg.Discord.RotationHypeChannelID) ||
		strings.TrimSpace(oldCfg.Discord.LogChannelID) != strings.TrimSpace(newCfg.Discord.LogChannelID) {
		changed = append(changed, "discord")
		attrs = append(attrs,
			logx.Int("discord.owner_count", len(newCfg.Discord.OwnerUserIDs)),
			logx.Bool("discord.log_channel_set", strings.TrimSpace(newCfg.Discord.LogChannelID) != ""),
		)
	}

	// Logging
	if oldCfg.Logging.Level != newCfg.Logging.Level ||
		oldCfg.Logging.Console != newCfg.Logging.Console ||
		oldCfg.Logging.File.Enabled != newCfg.Logging.File.Enabled ||
		strings.TrimSpace(oldCfg.Logging.File.Path) != strings.TrimSpace(newCfg.Logging.File.Path) ||
		oldCfg.Logging.Discord != newCfg.Logging.Discord {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.discord_enabled", newCfg.Logging.Discord.Enabled),
		)
	}

	// Decksite
	if oldCfg.Decksite != newCfg.Decksite {
		changed = append(changed, "decksite")
		attrs = append(attrs,
			logx.String("decksite.base_url", strings.TrimSpace(newCfg.Decksite.BaseURL)),
			logx.String("decksite.timeout", strings.TrimSpace(newCfg.Decksite.Timeout)),
		)
	}

	// Rotation
	if oldCfg.Rotation != newCfg.Rotation {
		changed = append(changed, "rotation")
		attrs = append(attrs,
			logx.Bool("rotation.progress_path_set", strings.TrimSpace(newCfg.Rotation.ProgressPath) != ""),
			logx.Int("rotation.total_runs", newCfg.Rotation.TotalRuns),
		)
	}

	// Bugged-card refresh
	if oldCfg.Bugs != newCfg.Bugs {
		changed = append(changed, "bugs")
		attrs = append(attrs,
			logx.String("bugs.refresh_spec", strings.TrimSpace(newCfg.Bugs.RefreshSpec)),
		)
	}

	// Reboot watch
	if oldCfg.Reboot != newCfg.Reboot {
		changed = append(changed, "reboot")
		attrs = append(attrs,
			logx.String("reboot.poll", strings.TrimSpace(newCfg.Reboot.Poll)),
		)
	}

	// Storage (persistence). Nil means disabled.
	var oDriver, nDriver, oBusy, nBusy string
	var oPathSet, nPathSet bool
	if oldCfg.Storage != nil {
		oDriver = strings.TrimSpace(oldCfg.Storage.Driver)
		oBusy = strings.TrimSpace(oldCfg.Storage.BusyTimeout)
		oPathSet = strings.TrimSpace(oldCfg.Storage.Path) != ""
	}
	if newCfg.Storage != nil {
		nDriver = strings.TrimSpace(newCfg.Storage.Driver)
		nBusy = strings.TrimSpace(newCfg.Storage.BusyTimeout)
		nPathSet = strings.TrimSpace(newCfg.Storage.Path) != ""
	}
	if oDriver != nDriver || oBusy != nBusy || oPathSet != nPathSet {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", nDriver),
			logx.Bool("storage.path_set", nPathSet),
			logx.String("storage.busy_timeout", nBusy),
		)
	}

	// Github (never log token)
	var oEnabled, nEnabled, oTokenSet, nTokenSet bool
	var oRepo, nRepo string
	if oldCfg.Github != nil {
		oEnabled = oldCfg.Github.Enabled
		oTokenSet = strings.TrimSpace(oldCfg.Github.Token) != ""
		oRepo = strings.TrimSpace(oldCfg.Github.Repo)
	}
	if newCfg.Github != nil {
		nEnabled = newCfg.Github.Enabled
		nTokenSet = strings.TrimSpace(newCfg.Github.Token) != ""
		nRepo = strings.TrimSpace(newCfg.Github.Repo)
	}
	if oEnabled != nEnabled || oTokenSet != nTokenSet || oRepo != nRepo {
		changed = append(changed, "github")
		attrs = append(attrs,
			logx.Bool("github.enabled", nEnabled),
			logx.Bool("github.token_set", nTokenSet),
			logx.String("github.repo", nRepo),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
