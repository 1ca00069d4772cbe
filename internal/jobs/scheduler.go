package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"OrderOps/internal/config"
	"OrderOps/internal/logger"
	"OrderOps/internal/metrics"
	"OrderOps/internal/serviceiface"
	"OrderOps/internal/store"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type BackfillConfig struct {
	Schedule string
	TimeZone string
	Timeout  time.Duration
}

func NewDefaultBackfillConfig() *BackfillConfig {
	return &BackfillConfig{
		Schedule: config.DefaultBackfillSchedule,
		TimeZone: config.DefaultTimeZone,
		Timeout:  5 * time.Minute,
	}
}

// CronService periodically stamps manufacturers onto order lines that were
// ingested before their product was linked.
type CronService struct {
	config map[string]interface{}
	store  store.OrderLineStore
	cfg    *BackfillConfig

	mu   sync.Mutex
	cron *cron.Cron
}

func NewCronService(cfg map[string]interface{}, st store.OrderLineStore) serviceiface.Service {
	bc := NewDefaultBackfillConfig()
	if cfg != nil {
		if s, ok := cfg["backfill_schedule"].(string); ok && s != "" {
			bc.Schedule = s
		}
		if tz, ok := cfg["time_zone"].(string); ok && tz != "" {
			bc.TimeZone = tz
		}
	}
	return &CronService{config: cfg, store: st, cfg: bc}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, err := time.LoadLocation(s.cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(s.cfg.Schedule, func() { _, _ = s.Sweep() }); err != nil {
		return fmt.Errorf("unable to schedule manufacturer backfill: %v", err)
	}
	c.Start()
	s.cron = c
	logger.Audit("backfill scheduler started (%s, %s)", s.cfg.Schedule, loc)
	return nil
}

func (s *CronService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return nil
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	zap.L().Info("backfill scheduler stopped")
	return nil
}

// Sweep runs one backfill pass and reports how many order lines it stamped.
func (s *CronService) Sweep() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	n, err := s.store.BackfillAllManufacturers(ctx)
	if err != nil {
		zap.L().Error("manufacturer backfill failed", zap.Error(err))
		return 0, err
	}
	metrics.AddBackfilled(n)
	zap.L().Info("manufacturer backfill done",
		zap.Int64("order_lines", n),
		zap.Duration("elapsed", time.Since(start)))
	return n, nil
}
