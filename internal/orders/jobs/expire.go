package jobs

import (
	"context"
	"smartrentals/pkg/config"
	"smartrentals/pkg/logger"
	"time"

	"github.com/robfig/cron/v3"
)

type Expirer interface {
	ExpirePending(ctx context.Context, olderThan time.Duration) (int, error)
}

// Scheduler runs the pending-order expiry on the configured cron spec.
type Scheduler struct {
	cron    *cron.Cron
	expirer Expirer
	ttl     time.Duration
	timeout time.Duration
	log     *logger.Logger
}

func NewScheduler(expirer Expirer, cfg *config.Config) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithParser(cron.NewParser(config.CronSpecParser)),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		expirer: expirer,
		ttl:     cfg.PendingOrderTTL,
		timeout: cfg.RequestTimeout * 10,
		log:     cfg.Log.Component("order-expiry"),
	}

	if _, err := s.cron.AddFunc(cfg.ExpireOrdersCron, s.ExpirePendingOrders); err != nil {
		return nil, err
	}
	return s, nil
}

// ExpirePendingOrders runs one expiry pass.
func (s *Scheduler) ExpirePendingOrders() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	expired, err := s.expirer.ExpirePending(ctx, s.ttl)
	if err != nil {
		s.log.Error("Pending order expiry failed", "expired", expired, "error", err)
		return
	}
	s.log.Debug("Pending order expiry finished", "expired", expired, "duration", time.Since(start))
}

func (s *Scheduler) Start() {
	s.log.Info("Starting order expiry scheduler", "ttl", s.ttl)
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Order expiry scheduler stopped")
}
