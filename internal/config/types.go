package config

type Config struct {
	Discord  DiscordConfig  `json:"discord"`
	Decksite DecksiteConfig `json:"decksite"`
	Rotation RotationConfig `json:"rotation"`
	Bugs     BugsConfig     `json:"bugs,omitempty"`
	Reboot   RebootConfig   `json:"reboot,omitempty"`
	Logging  LoggingConfig  `json:"logging"`

	// Storage enables the optional persistence layer (notification dedup,
	// the reboot flag, cached catalogs). Nil means disabled.
	Storage *StorageConfig `json:"storage,omitempty"`

	// Github configures the error-to-issue funnel. Nil means disabled.
	Github *GithubConfig `json:"github,omitempty"`
}

type DiscordConfig struct {
	Token        string   `json:"token"`
	GuildID      string   `json:"guild_id"`
	OwnerUserIDs []string `json:"owner_user_ids,omitempty"`

	// Channel targets consumed by the notifiers and glue handlers.
	// A missing/invalid id disables the corresponding notifier for the
	// process lifetime (logged as a warning, not retried).
	GeneralChannelID      string `json:"general_channel_id,omitempty"`
	TournamentChannelID   string `json:"tournament_channel_id,omitempty"`
	RotationHypeChannelID string `json:"rotation_hype_channel_id,omitempty"`
	LogChannelID          string `json:"log_channel_id,omitempty"`
}

type DecksiteConfig struct {
	BaseURL       string `json:"base_url"`
	GatherlingURL string `json:"gatherling_url,omitempty"`
	// Timeout is a Go duration string (e.g. "10s", "1m").
	Timeout string `json:"timeout,omitempty"`
}

// RotationConfig points at the progress summary the rotation scripts write.
type RotationConfig struct {
	ProgressPath string `json:"progress_path,omitempty"`
	TotalRuns    int    `json:"total_runs,omitempty"`
}

// BugsConfig controls the bugged-card catalog refresh.
//
// RefreshSpec is a robfig/cron spec ("@every 6h" by default). The refresh runs
// on its own low-frequency schedule rather than piggybacking a notifier timer.
type BugsConfig struct {
	URL         string `json:"url,omitempty"`
	RefreshSpec string `json:"refresh_spec,omitempty"`
}

// RebootConfig controls the fixed-interval reboot watch.
type RebootConfig struct {
	FlagKey string `json:"flag_key,omitempty"` // default "pdbot:do_reboot"
	// Poll is a Go duration string. Default "60s" — this is deliberately a
	// fixed interval: the trigger is an operator signal, not a countdown.
	Poll string `json:"poll,omitempty"`
}

type LoggingConfig struct {
	Level   string         `json:"level"`
	Console bool           `json:"console"`
	File    LoggingFile    `json:"file"`
	Discord LoggingDiscord `json:"discord"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingDiscord struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./pdbot_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type GithubConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	Repo    string `json:"repo,omitempty"` // "owner/name"
}
