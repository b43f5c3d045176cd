package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/store"
)

// DefaultCodeRetention is how long expired and redeemed codes are kept
// before the sweeper removes them.
const DefaultCodeRetention = 24 * time.Hour

// HousekeepingService periodically deletes authorization codes that expired
// more than Retention ago.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration
	Now       func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a sweeper. Non-positive interval and
// retention fall back to one hour and DefaultCodeRetention.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = DefaultCodeRetention
	}

	return &HousekeepingService{
		Store:     store,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		Now:       time.Now,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start runs the sweeper in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "retention", s.Retention)
}

// Stop blocks until any in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweepLogged()

	for {
		select {
		case <-ticker.C:
			s.sweepLogged()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweepLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Interval)
	defer cancel()

	n, err := s.Sweep(ctx)
	if err != nil {
		s.Logger.Error("failed to delete expired authorization codes", "error", err)
		return
	}
	s.Logger.Info("housekeeping cleanup completed", "deleted_codes", n)
}

// Sweep deletes codes whose expiry is older than the retention window and
// reports how many were removed.
func (s *HousekeepingService) Sweep(ctx context.Context) (int64, error) {
	before := s.Now().Add(-s.Retention)
	return s.Store.AuthorizationCodes().DeleteExpiredAuthorizationCodes(ctx, before)
}
