package scheduler

import (
	"context"
	"fmt"
	"strings"

	"VolServe/internal/usecase"
	"VolServe/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Trainer runs one train workflow.
type Trainer interface {
	Train(ctx context.Context, in usecase.TrainParams) usecase.TrainResult
}

// RetrainConfig describes the periodic retrain job.
type RetrainConfig struct {
	Spec    string
	Tickers []string
	Refresh bool
	NPoints int
	P       int
	Q       int
}

// Scheduler refits every configured ticker on a cron schedule. A run that is
// still going when the next tick fires makes that tick a no-op.
type Scheduler struct {
	cron    *cron.Cron
	trainer Trainer
	cfg     RetrainConfig
	log     *logger.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// New validates the cron spec and registers the retrain job. Nothing runs until
// Start.
func New(cfg RetrainConfig, trainer Trainer, log *logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.Nop()
	}
	if len(cfg.Tickers) == 0 {
		return nil, fmt.Errorf("scheduler: no tickers configured")
	}
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		trainer: trainer,
		cfg:     cfg,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	if _, err := s.cron.AddFunc(cfg.Spec, func() { s.RunNow(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("register retrain job %q: %w", cfg.Spec, err)
	}
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started",
		logger.String("spec", s.cfg.Spec),
		logger.Strings("tickers", s.cfg.Tickers),
		logger.Bool("refresh", s.cfg.Refresh),
	)
}

// Stop halts scheduling, cancels an in-progress run and waits for it to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunNow trains each ticker in order and returns how many succeeded.
func (s *Scheduler) RunNow(ctx context.Context) int {
	ok := 0
	for _, t := range s.cfg.Tickers {
		if ctx.Err() != nil {
			break
		}
		res := s.trainer.Train(ctx, usecase.TrainParams{
			Ticker:      t,
			RefreshData: s.cfg.Refresh,
			NPoints:     s.cfg.NPoints,
			P:           s.cfg.P,
			Q:           s.cfg.Q,
		})
		if res.Success {
			ok++
			continue
		}
		s.log.Warn("scheduled retrain failed",
			logger.String("ticker", t),
			logger.String("message", res.Message),
		)
	}
	s.log.Info("scheduled retrain finished",
		logger.Int("succeeded", ok),
		logger.Int("total", len(s.cfg.Tickers)),
	)
	return ok
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, logger.Any(strings.ReplaceAll(key, " ", "_"), kv[i+1]))
	}
	return fields
}
