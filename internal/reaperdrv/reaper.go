// Package reaperdrv is the periodic driver that ticks the engine's
// maintenance operations on a schedule. It lives outside the engine on
// purpose: the engine only exposes the entrypoints, and any scheduler
// (this one, a cron job, a test) can drive them.
package reaperdrv

import (
	"context"
	"log/slog"
	"time"

	"github.com/intervaldb/intervaldb/internal/engine"
	"github.com/intervaldb/intervaldb/internal/model"
)

// Config controls the reaper's three independent tick cadences.
type Config struct {
	ExpiredHoldInterval time.Duration
	GCInterval          time.Duration
	GCRetentionMs       model.Time
	CompactInterval     time.Duration
	// CompactionThreshold is the appends-since-compaction count past which
	// the compactor tick rewrites the WAL; <= 0 disables it.
	CompactionThreshold int64
}

// DefaultConfig returns sane tick intervals: holds are cheap to scan
// often, GC is heavier and runs less frequently, and the compactor checks
// its counter threshold every few seconds since the check itself is cheap.
func DefaultConfig(retentionMs model.Time, compactionThreshold int64) Config {
	return Config{
		ExpiredHoldInterval: 5 * time.Second,
		GCInterval:          5 * time.Minute,
		GCRetentionMs:       retentionMs,
		CompactInterval:     10 * time.Second,
		CompactionThreshold: compactionThreshold,
	}
}

// Run blocks, ticking eng.CollectExpiredHolds, eng.GCPastIntervals, and the
// threshold-driven eng.CompactWal on their own independent tickers until
// ctx is cancelled. Expired holds collected here are logged and released;
// the core itself never expires a hold on its own — release_hold is still
// the only mutation that removes one. A GC pass that removed anything is
// followed by a compaction, since the rewritten log no longer needs the
// removed intervals or the entries that removed them; the compactor tick additionally rewrites the WAL whenever the
// append counter crosses the configured threshold.
func Run(ctx context.Context, eng *engine.Engine, cfg Config, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	holdTicker := time.NewTicker(cfg.ExpiredHoldInterval)
	gcTicker := time.NewTicker(cfg.GCInterval)
	compactTicker := time.NewTicker(cfg.CompactInterval)
	defer holdTicker.Stop()
	defer gcTicker.Stop()
	defer compactTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-holdTicker.C:
			reapExpiredHolds(eng, logger)
		case <-gcTicker.C:
			now := model.Time(time.Now().UnixMilli())
			removed := eng.GCPastIntervals(now, cfg.GCRetentionMs)
			if removed > 0 {
				logger.Info("reaper: gc pass", "removed", removed)
				if err := eng.CompactWal(); err != nil {
					logger.Warn("reaper: post-gc compaction failed", "error", err)
				}
			}
		case <-compactTicker.C:
			if cfg.CompactionThreshold <= 0 {
				continue
			}
			if appends := eng.WalAppendsSinceCompact(); appends >= cfg.CompactionThreshold {
				if err := eng.CompactWal(); err != nil {
					logger.Warn("reaper: threshold compaction failed", "error", err)
				} else {
					logger.Info("reaper: wal compacted", "appends_since_compact", appends)
				}
			}
		}
	}
}

func reapExpiredHolds(eng *engine.Engine, logger *slog.Logger) {
	now := model.Time(time.Now().UnixMilli())
	expired := eng.CollectExpiredHolds(now)
	for _, h := range expired {
		if err := eng.ReleaseHold(h.HoldID); err != nil {
			logger.Warn("reaper: release expired hold failed", "hold_id", h.HoldID, "error", err)
		}
	}
	if len(expired) > 0 {
		logger.Info("reaper: expired holds released", "count", len(expired))
	}
}
