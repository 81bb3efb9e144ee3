// Package scheduler runs the notification generators on cron schedules by
// calling the API, so the API process itself keeps no timers.
package scheduler

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Config struct {
	BaseURL          string
	Token            string
	WarrantySchedule string
	RepairSchedule   string
	Timeout          time.Duration
	Retries          int
}

// LoadConfig reads the scheduler settings from the environment.
func LoadConfig() Config {
	cfg := Config{
		BaseURL:          getEnv("API_BASE_URL", "http://localhost:8080"),
		Token:            os.Getenv("API_TOKEN"),
		WarrantySchedule: getEnv("WARRANTY_SCHEDULE", "0 6 * * *"),
		RepairSchedule:   getEnv("REPAIR_SCHEDULE", "30 6 * * *"),
		Timeout:          30 * time.Second,
		Retries:          3,
	}
	if v := os.Getenv("API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("API_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Retries = n
		}
	}
	return cfg
}

func (c Config) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("API_BASE_URL is required"))
	}
	if _, err := cron.ParseStandard(c.WarrantySchedule); err != nil {
		errs = append(errs, errors.New("WARRANTY_SCHEDULE: "+err.Error()))
	}
	if _, err := cron.ParseStandard(c.RepairSchedule); err != nil {
		errs = append(errs, errors.New("REPAIR_SCHEDULE: "+err.Error()))
	}
	return errors.Join(errs...)
}

type Scheduler struct {
	cron    *cron.Cron
	gen     Generator
	timeout time.Duration
	logger  *zap.Logger
}

// New registers both generator jobs. Overlapping runs of the same job are skipped.
func New(cfg Config, gen Generator, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLog := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		gen:     gen,
		timeout: cfg.Timeout,
		logger:  logger,
	}
	if s.timeout <= 0 {
		s.timeout = time.Minute
	}
	if _, err := s.cron.AddFunc(cfg.WarrantySchedule, s.job(KindWarranty)); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.RepairSchedule, s.job(KindRepair)); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) job(kind string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		_ = s.Run(ctx, kind)
	}
}

// Run triggers one generator pass immediately.
func (s *Scheduler) Run(ctx context.Context, kind string) error {
	start := time.Now()
	res, err := s.gen.Generate(ctx, kind)
	if err != nil {
		s.logger.Error("notification generator failed", zap.String("kind", kind), zap.Error(err))
		return err
	}
	s.logger.Info("notification generator finished",
		zap.String("kind", kind),
		zap.Int("created", res.Created),
		zap.Duration("latency", time.Since(start)))
	return nil
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
