package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "pdbot/pkg/logx"
)

// Store is the minimal persistence API used by the bot.
//
// Dedup keys guard once-per-threshold-crossing notifications, flags carry
// operator signals (the reboot request), and blobs hold cached catalogs
// (achievement titles, bugged cards) across restarts.
type Store interface {
	PutDedup(ctx context.Context, key string, until time.Time) error
	// GetDedup reports ok=false for keys whose until has passed, whether or
	// not the backend has physically removed them yet.
	GetDedup(ctx context.Context, key string) (until time.Time, ok bool, err error)
	SetFlag(ctx context.Context, key string, on bool) error
	GetFlag(ctx context.Context, key string) (bool, error)
	PutBlob(ctx context.Context, key string, data []byte) error
	GetBlob(ctx context.Context, key string) ([]byte, bool, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
