package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper очищает просроченные удержания
type Sweeper interface {
	CleanupExpiredBlocks(ctx context.Context) (*service.SweepResult, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	sweeper Sweeper
	cron    *cron.Cron
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	first  sync.WaitGroup
}

// NewScheduler создаёт планировщик очистки по cron выражению
func NewScheduler(sweeper Sweeper, spec string, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		sweeper: sweeper,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger,
		ctx:     context.Background(),
		cancel:  func() {},
	}

	if _, err := s.cron.AddFunc(spec, func() { s.sweep(s.ctx) }); err != nil {
		return nil, fmt.Errorf("schedule hold sweep %q: %w", spec, err)
	}

	return s, nil
}

// Start запускает первый проход сразу и дальше по расписанию.
// Все проходы получают ctx и прерываются вместе с ним или по Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	s.ctx, s.cancel = context.WithCancel(ctx)

	s.first.Add(1)
	go func() {
		defer s.first.Done()
		s.sweep(s.ctx)
	}()
	s.cron.Start()
}

// Stop отменяет текущие проходы и ждёт их завершения
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.first.Wait()
}

func (s *Scheduler) sweep(ctx context.Context) {
	result, err := s.sweeper.CleanupExpiredBlocks(ctx)
	if err != nil {
		s.logger.Error("Failed to sweep expired holds", zap.Error(err))
		return
	}
	if result.Err != nil {
		s.logger.Warn("Hold sweep finished with errors",
			zap.String("message", result.Message),
			zap.Error(result.Err),
		)
		return
	}
	s.logger.Debug("Hold sweep completed", zap.String("message", result.Message))
}
