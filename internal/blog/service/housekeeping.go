package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/store"
	"github.com/aussiebroadwan/blogd/pkg/media"
)

// HousekeepingService periodically removes abandoned staged uploads and
// expired revocation entries.
type HousekeepingService struct {
	Store    store.Store
	Media    media.Stager
	Logger   *slog.Logger
	Interval time.Duration

	// StagingMaxAge is how long an upload may sit in staging before it is
	// considered abandoned.
	StagingMaxAge time.Duration
	Now           func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service. Non-positive
// durations default to one hour.
func NewHousekeepingService(st store.Store, stager media.Stager, logger *slog.Logger, interval, stagingMaxAge time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if stagingMaxAge <= 0 {
		stagingMaxAge = time.Hour
	}

	return &HousekeepingService{
		Store:         st,
		Media:         stager,
		Logger:        logger,
		Interval:      interval,
		StagingMaxAge: stagingMaxAge,
		Now:           time.Now,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each step is independent; a failing one does not
// stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := s.Now()
	s.Logger.Debug("starting housekeeping cleanup")

	var successful int

	if s.Media != nil {
		n, err := s.Media.Sweep(ctx, now.Add(-s.StagingMaxAge))
		if err != nil {
			s.Logger.Error("failed to sweep staged uploads", "error", err)
		} else {
			s.Logger.Debug("swept staged uploads", "count", n)
			successful++
		}
	}

	n, err := s.Store.Revocations().DeleteExpired(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired revocations", "error", err)
	} else {
		s.Logger.Debug("deleted expired revocations", "count", n)
		successful++
	}

	s.Logger.Info("housekeeping cleanup completed", "successful_cleanups", successful)
}
