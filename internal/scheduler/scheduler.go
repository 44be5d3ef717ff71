// Package scheduler runs the background archive sweep.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/blakewatson/bookmarks/internal/archive"
	"github.com/blakewatson/bookmarks/internal/bookmark"
	"github.com/blakewatson/bookmarks/internal/telemetry"
)

// Config controls the sweep. It is injected once at startup; changing the
// enabled flag requires a restart.
type Config struct {
	Enabled  bool
	Interval time.Duration
}

// Sweep archives the next eligible bookmark on a fixed ticker, one attempt
// per tick. Failures are logged and recorded as attempted, never surfaced.
type Sweep struct {
	cfg       Config
	bookmarks *bookmark.Store
	records   archive.RecordStore
	coord     *archive.Coordinator
	logger    *zap.Logger
}

// New constructs a Sweep.
func New(
	cfg Config,
	bookmarks *bookmark.Store,
	records archive.RecordStore,
	coord *archive.Coordinator,
	logger *zap.Logger,
) *Sweep {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweep{
		cfg:       cfg,
		bookmarks: bookmarks,
		records:   records,
		coord:     coord,
		logger:    logger,
	}
}

// Run blocks until the context finishes. The first attempt happens
// immediately; later ones follow the configured interval.
func (s *Sweep) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("background archiver disabled")
		return
	}
	s.logger.Info("background archiver started", zap.Duration("interval", s.cfg.Interval))

	s.tick(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("background archiver stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweep) tick(ctx context.Context) {
	collection, err := s.bookmarks.Load()
	if err != nil {
		s.logger.Error("sweep: load bookmarks failed", zap.Error(err))
		telemetry.ObserveSweepTick("error")
		return
	}
	records, err := s.records.All()
	if err != nil {
		s.logger.Error("sweep: load archive records failed", zap.Error(err))
		telemetry.ObserveSweepTick("error")
		return
	}

	ref, ok := archive.NextEligible(collection.Refs(), records)
	if !ok {
		telemetry.ObserveSweepTick("idle")
		return
	}

	s.logger.Info("archiving bookmark",
		zap.String("bookmark_id", ref.ID),
		zap.String("url", ref.URL),
	)
	if _, err := s.coord.Archive(ctx, ref, archive.MarkAttempted); err != nil {
		s.logger.Error("sweep: archive attempt failed", zap.String("bookmark_id", ref.ID), zap.Error(err))
		telemetry.ObserveSweepTick("error")
		return
	}
	telemetry.ObserveSweepTick("archived")
}
