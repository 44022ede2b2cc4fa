// Package worker runs the periodic ingestion-status sweep: documents stuck
// in "processing" past a staleness window are reset to "pending" (or
// "failed" once retries are exhausted) so the ingestion pipeline — out of
// this repo's scope, per §7 — eventually picks them back up. Wired with
// github.com/hibiken/asynq in the same client/server/mux idiom the teacher
// uses for its extraction task queue.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/logger"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
)

const TaskSweepStuckProcessing = "ingestion:sweep_stuck_processing"

const (
	defaultStaleAfter = 15 * time.Minute
	defaultMaxRetries = 3
)

// Sweeper wraps the asynq client/server pair and the periodic scheduler that
// enqueues the sweep task on cfg.SweepEvery.
type Sweeper struct {
	store     interfaces.Store
	cfg       *config.AsynqConfig
	client    *asynq.Client
	server    *asynq.Server
	scheduler *asynq.Scheduler
}

func NewSweeper(store interfaces.Store, cfg *config.AsynqConfig) *Sweeper {
	opt := asynq.RedisClientOpt{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Sweeper{
		store:  store,
		cfg:    cfg,
		client: asynq.NewClient(opt),
		server: asynq.NewServer(opt, asynq.Config{
			Concurrency: orDefaultInt(cfg.Concurrency, 1),
			Queues:      map[string]int{"default": 1},
		}),
		scheduler: asynq.NewScheduler(opt, nil),
	}
}

// Run starts the asynq server processing the sweep task and the scheduler
// enqueuing it on cfg.SweepEvery, blocking until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSweepStuckProcessing, s.handleSweep)

	every := s.cfg.SweepEvery
	if every <= 0 {
		every = 5 * time.Minute
	}
	if _, err := s.scheduler.Register(fmt.Sprintf("@every %s", every), asynq.NewTask(TaskSweepStuckProcessing, nil)); err != nil {
		return fmt.Errorf("register sweep schedule: %w", err)
	}

	errCh := make(chan error, 2)
	go func() { errCh <- s.server.Run(mux) }()
	go func() { errCh <- s.scheduler.Run() }()

	select {
	case <-ctx.Done():
		s.server.Shutdown()
		s.scheduler.Shutdown()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Sweeper) handleSweep(ctx context.Context, _ *asynq.Task) error {
	staleSince := time.Now().Add(-defaultStaleAfter)
	reset, failed, err := s.store.SweepStuckProcessing(ctx, staleSince, defaultMaxRetries)
	if err != nil {
		logger.Errorf(ctx, "ingestion sweep failed: %v", err)
		return err
	}
	if reset > 0 || failed > 0 {
		logger.Infof(ctx, "ingestion sweep reclaimed %d documents, failed %d past retry limit", reset, failed)
	}
	return nil
}

func orDefaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
