package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/immo-backend/internal/goroutine"
	"github.com/ignatzorin/immo-backend/internal/logger"
)

// SweepFunc - один свипер: возвращает количество обработанных
// элементов. Ошибки отдельных элементов свипер гасит сам, сюда
// приходит только отказ всей выборки.
type SweepFunc func(ctx context.Context) (int, error)

// Job - именованный свипер.
type Job struct {
	Name string
	Run  SweepFunc
}

// Scheduler запускает свиперы по тикеру. Дедлайны договоров и escrow
// должны срабатывать, даже если к системе никто не обращается, поэтому
// свиперы крутятся независимо от HTTP трафика.
type Scheduler struct {
	interval time.Duration
	budget   time.Duration
	jobs     []Job
	log      *logrus.Entry
}

func New(interval, budget time.Duration, jobs ...Job) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if budget <= 0 {
		budget = 2 * time.Minute
	}
	return &Scheduler{
		interval: interval,
		budget:   budget,
		jobs:     jobs,
		log:      logger.WithComponent("scheduler"),
	}
}

// Start запускает цикл свиперов в фоне и возвращается сразу.
// Останавливается при отмене контекста.
func (s *Scheduler) Start(ctx context.Context) {
	goroutine.SafeGoWithContext(ctx, s.run)
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Первый проход сразу после старта: за время простоя сервиса
	// дедлайны могли накопиться.
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("остановка по сигналу")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет все свиперы один раз в рамках бюджета времени.
// Элементы, не успевшие в бюджет, подбираются следующим тиком - их
// переходы атомарны, потерь нет.
func (s *Scheduler) RunOnce(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	for _, job := range s.jobs {
		if sweepCtx.Err() != nil {
			s.log.Warnf("бюджет прохода исчерпан, %s отложен до следующего тика", job.Name)
			return
		}

		processed, err := job.Run(sweepCtx)
		if err != nil {
			s.log.WithField("job", job.Name).Errorf("свипер завершился с ошибкой: %v", err)
			continue
		}
		if processed > 0 {
			s.log.WithFields(logrus.Fields{
				"job":       job.Name,
				"processed": processed,
			}).Info("свипер обработал элементы")
		}
	}
}
