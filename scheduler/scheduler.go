package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"price_radar/config"
	"price_radar/monitor"
)

// Scheduler drives the orchestrator on the configured frequency tiers. One
// cron entry per tier: monitors with frequency_minutes equal to the tier are
// picked up by that entry's tick.
type Scheduler struct {
	cfg          *config.Config
	orchestrator *monitor.Orchestrator
	cron         *cron.Cron
	ticker       *time.Ticker
	stopCh       chan struct{}
}

func New(cfg *config.Config, orchestrator *monitor.Orchestrator) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		orchestrator: orchestrator,
		cron:         cron.New(),
		stopCh:       make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	for _, tier := range s.cfg.Scheduler.Tiers {
		tier := tier
		expr := fmt.Sprintf("*/%d * * * *", tier)
		_, err := s.cron.AddFunc(expr, func() {
			s.orchestrator.RunBatch(ctx, tier)
		})
		if err != nil {
			return fmt.Errorf("invalid tier %d: %w", tier, err)
		}
		log.Printf("Scheduler: tier every %dm (%s)", tier, expr)
	}
	if len(s.cfg.Scheduler.Tiers) > 0 {
		s.cron.Start()
	}

	if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Scheduler: extra sweep interval %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.runAllTiers(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	if len(s.cfg.Scheduler.Tiers) == 0 && s.cfg.Scheduler.Interval <= 0 {
		log.Println("Scheduler: nothing configured, daemon will only respond to HTTP triggers")
	}

	return nil
}

// TriggerNow runs every tier immediately, regardless of schedule.
func (s *Scheduler) TriggerNow(ctx context.Context) {
	s.runAllTiers(ctx)
}

func (s *Scheduler) runAllTiers(ctx context.Context) {
	for _, tier := range s.cfg.Scheduler.Tiers {
		s.orchestrator.RunBatch(ctx, tier)
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}
