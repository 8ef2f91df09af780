package service

import (
	"context"
	"log/slog"
	"time"
)

// HousekeepingService periodically purges expired authorization codes.
// The protocol never depends on it; it only keeps the table from growing
// without bound.
type HousekeepingService struct {
	codes    *CodeService
	log      *slog.Logger
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewHousekeepingService(codes *CodeService, log *slog.Logger, interval time.Duration) *HousekeepingService {
	return &HousekeepingService{
		codes:    codes,
		log:      log,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *HousekeepingService) Start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for the current sweep to finish.
func (s *HousekeepingService) Stop() {
	close(s.stop)
	<-s.done
}

func (s *HousekeepingService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.codes.PurgeExpired(ctx); err != nil {
		s.log.Error("housekeeping sweep failed", "err", err)
	}
}
