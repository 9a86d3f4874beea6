// Package reporting refreshes operational gauges on a schedule.
package reporting

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/novachain/admin-backend/internal/domain/request"
	"github.com/novachain/admin-backend/internal/metrics"
	"github.com/novachain/admin-backend/internal/storage"
	"github.com/novachain/admin-backend/pkg/logger"
)

// Service keeps the pending-request gauges current so dashboards can alert
// on review backlogs.
type Service struct {
	requests storage.RequestStore
	cron     *cron.Cron
	log      *logger.Logger
}

// NewService creates the reporting service.
func NewService(requests storage.RequestStore, log *logger.Logger) *Service {
	return &Service{
		requests: requests,
		cron:     cron.New(),
		log:      log.Named("reporting"),
	}
}

// Start registers the refresh job on the given cron schedule and runs one
// refresh immediately.
func (s *Service) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.Refresh); err != nil {
		return err
	}
	s.cron.Start()
	s.Refresh()
	return nil
}

// Stop halts the scheduler, waiting for a running refresh to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn("reporting refresh did not finish before shutdown")
	}
}

// Refresh recounts pending requests and updates the gauges.
func (s *Service) Refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, kind := range []request.Kind{request.KindDeposit, request.KindWithdrawal} {
		n, err := s.requests.CountPending(ctx, kind)
		if err != nil {
			s.log.WithError(err).WithField("kind", string(kind)).Warn("pending count failed")
			continue
		}
		metrics.SetPendingRequests(string(kind), n)
	}
}
