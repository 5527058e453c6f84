// Package housekeeping runs the scheduled orphaned-upload sweep: uploaded
// images that no article references anymore are removed from disk.
package housekeeping

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/adhocore/gronx"

	"mentorhub/pkg/content"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/telemetry"
)

// minAge protects uploads that were just written but whose article has not
// been published yet.
const minAge = 24 * time.Hour

// Sweeper periodically removes orphaned uploads on a cron schedule.
type Sweeper struct {
	store  *content.Store
	cron   string
	dryRun bool
}

// New builds a sweeper. An empty cron expression defaults to nightly.
func New(store *content.Store, cron string, dryRun bool) *Sweeper {
	if cron == "" {
		cron = "0 3 * * *"
	}
	return &Sweeper{store: store, cron: cron, dryRun: dryRun}
}

// Run blocks until ctx is canceled, checking the schedule once a minute.
func (s *Sweeper) Run(ctx context.Context) {
	g := gronx.New()
	if !g.IsValid(s.cron) {
		logger.Error("housekeeping_invalid_cron", "cron", s.cron)
		return
	}
	logger.Info("housekeeping_started", "cron", s.cron, "dry_run", s.dryRun)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("housekeeping_stopped")
			return
		case now := <-ticker.C:
			due, err := g.IsDue(s.cron, now)
			if err != nil || !due {
				continue
			}
			s.Sweep()
		}
	}
}

// Sweep removes unreferenced uploads older than the minimum age. It is
// exported so operators can trigger it directly from tooling.
func (s *Sweeper) Sweep() {
	dir := s.store.UploadsDir()
	if dir == "" {
		return
	}
	referenced, err := s.store.ReferencedImages()
	if err != nil {
		logger.Error("housekeeping_scan_failed", "error", err)
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Error("housekeeping_read_failed", "dir", dir, "error", err)
		return
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := referenced[e.Name()]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil || time.Since(info.ModTime()) < minAge {
			continue
		}
		if s.dryRun {
			logger.Info("housekeeping_would_remove", "file", e.Name())
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			logger.Warn("housekeeping_remove_failed", "file", e.Name(), "error", err)
			continue
		}
		removed++
	}
	telemetry.CountSweep(removed)
	logger.Info("housekeeping_sweep_done", "removed", removed, "dry_run", s.dryRun)
}
