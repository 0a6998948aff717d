package downloads

import (
	"context"
	"fmt"
	"time"

	"github.com/pixelvault/pixelvault-backend/pkg/logger"
	"github.com/pixelvault/pixelvault-backend/pkg/metrics"
)

const sweeperJobName = "download-sweeper"

// Sweeper periodically deletes expired download verification rows.
type Sweeper struct {
	svc      Service
	logg     *logger.Logger
	metrics  *metrics.JobMetrics
	interval time.Duration
}

// NewSweeper constructs the sweeper. Metrics may be nil.
func NewSweeper(svc Service, logg *logger.Logger, jobMetrics *metrics.JobMetrics, interval time.Duration) (*Sweeper, error) {
	if svc == nil {
		return nil, fmt.Errorf("download service required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive")
	}
	return &Sweeper{
		svc:      svc,
		logg:     logg,
		metrics:  jobMetrics,
		interval: interval,
	}, nil
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	deleted, err := s.svc.PurgeExpired(ctx)
	s.metrics.ObserveDuration(sweeperJobName, time.Since(start))

	if err != nil {
		s.metrics.IncFailure(sweeperJobName)
		if s.logg != nil {
			s.logg.Error(ctx, "download sweep failed", err)
		}
		return
	}

	s.metrics.IncSuccess(sweeperJobName)
	if s.logg != nil && deleted > 0 {
		s.logg.Info(s.logg.WithField(ctx, "deleted", deleted), "expired download links swept")
	}
}
