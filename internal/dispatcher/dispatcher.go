package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/property-marketplace/internal/queue"
	"github.com/nimasrn/property-marketplace/pkg/logger"
	"github.com/nimasrn/property-marketplace/pkg/redis"
	"github.com/nimasrn/property-marketplace/pkg/worker"
)

const (
	ProcessingTimeout = 5 * time.Second
	HealthInterval    = 30 * time.Second
	ReportInterval    = 30 * time.Second
	ShutdownTimeout   = 30 * time.Second

	lagWarningThreshold = 10_000
)

// Processor handles one queued entry. A nil return acks it.
type Processor interface {
	Process(ctx context.Context, msg *queue.Message) error
	GetType() string
}

type Config struct {
	Queue     queue.QueueConfig
	Consumers int
	Workers   int
	Buffer    int
}

// Service drains the event queue with several consumers feeding one worker
// pool.
type Service struct {
	adapter   redis.RedisAdapter
	config    Config
	processor Processor
	queues    []*queue.Queue
	metrics   *ServiceMetrics
	worker    *worker.WorkerManager
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewService(adapter redis.RedisAdapter, processor Processor, cfg Config) *Service {
	if cfg.Consumers <= 0 {
		cfg.Consumers = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = cfg.Workers * 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		adapter:   adapter,
		config:    cfg,
		processor: processor,
		metrics:   NewServiceMetrics(),
		worker:    worker.NewWorkerManager(cfg.Buffer, cfg.Workers),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Service) Metrics() *ServiceMetrics {
	return s.metrics
}

func (s *Service) Start() error {
	if s.processor == nil {
		return errors.New("no processor registered")
	}
	logger.Info("[dispatcher] starting", "processor", s.processor.GetType())

	s.worker.SetWorker(s.workerHandler)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(s.ctx); err != nil && !errors.Is(err, worker.ErrStopped) {
			logger.Error("[dispatcher] worker pool stopped", "err", err)
		}
	}()

	for i := 0; i < s.config.Consumers; i++ {
		qc := s.config.Queue
		qc.ConsumerName = fmt.Sprintf("%s-%d", qc.ConsumerName, i)

		q, err := queue.NewQueue(s.ctx, s.adapter, qc)
		if err != nil {
			return fmt.Errorf("create consumer %d: %w", i, err)
		}
		if err := q.Consume(s.messageHandler); err != nil {
			return fmt.Errorf("start consumer %d: %w", i, err)
		}
		s.queues = append(s.queues, q)
	}

	s.wg.Add(2)
	go s.every(ReportInterval, s.reportMetrics)
	go s.every(HealthInterval, s.performHealthCheck)

	logger.Info("[dispatcher] started", "consumers", len(s.queues), "workers", s.config.Workers)
	return nil
}

func (s *Service) every(d time.Duration, fn func()) {
	defer s.wg.Done()
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) reportMetrics() {
	st := s.metrics.Snapshot()
	logger.Info("[dispatcher] metrics",
		"processed", st.Processed,
		"failed", st.Failed,
		"rate_per_second", st.RatePerSecond,
		"avg_duration_ms", st.AvgDuration.Milliseconds(),
		"uptime_seconds", int64(st.Uptime.Seconds()))
}

func (s *Service) performHealthCheck() {
	if err := s.adapter.Client().Ping(s.ctx).Err(); err != nil {
		logger.Error("[dispatcher] health check: redis unreachable", "err", err)
		return
	}
	if len(s.queues) == 0 {
		return
	}
	stats, err := s.queues[0].GetStats(s.ctx)
	if err != nil {
		logger.Warn("[dispatcher] health check: queue stats unavailable", "err", err)
		return
	}
	if stats.PendingMessages > lagWarningThreshold {
		logger.Warn("[dispatcher] health check: queue lag", "pending", stats.PendingMessages)
	}
}

// Stop cancels consumers, lets in-flight jobs finish and logs final totals.
func (s *Service) Stop() {
	logger.Info("[dispatcher] shutting down")
	s.cancel()

	var qwg sync.WaitGroup
	for i, q := range s.queues {
		qwg.Add(1)
		go func(i int, q *queue.Queue) {
			defer qwg.Done()
			if err := q.Stop(ShutdownTimeout); err != nil {
				logger.Error("[dispatcher] consumer stop failed", "consumer", i, "err", err)
			}
		}(i, q)
	}
	qwg.Wait()

	s.worker.Exit()
	s.wg.Wait()
	s.reportMetrics()
	logger.Info("[dispatcher] stopped")
}

type job struct {
	msg    *queue.Message
	result chan error
	ctx    context.Context
}

// messageHandler hands the entry to the pool and waits for its outcome so
// the queue can ack or leave it pending.
func (s *Service) messageHandler(ctx context.Context, msg *queue.Message) error {
	jctx, cancel := context.WithTimeout(ctx, ProcessingTimeout+time.Second)
	defer cancel()

	j := &job{msg: msg, result: make(chan error, 1), ctx: jctx}
	if err := s.worker.Enqueue(jctx, j); err != nil {
		return fmt.Errorf("enqueue %s: %w", msg.ID, err)
	}

	select {
	case err := <-j.result:
		return err
	case <-jctx.Done():
		return fmt.Errorf("waiting for worker on %s: %w", msg.ID, jctx.Err())
	}
}

func (s *Service) workerHandler(_ context.Context, workerIndex int, payload interface{}) {
	j, ok := payload.(*job)
	if !ok {
		logger.Error("[dispatcher] unexpected job type", "worker", workerIndex)
		return
	}
	if j.ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := s.processor.Process(j.ctx, j.msg)
	if err != nil {
		s.metrics.RecordFailure()
		logger.Error("[dispatcher] process failed", "worker", workerIndex, "queue_id", j.msg.ID, "err", err)
	} else {
		s.metrics.RecordSuccess(time.Since(start))
	}
	// result is buffered, so this never blocks
	j.result <- err
}
