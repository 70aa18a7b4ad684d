package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/nimasrn/property-marketplace/pkg/logger"
)

type WorkerHandler = func(ctx context.Context, workerIndex int, job interface{})

var ErrStopped = errors.New("worker manager stopped")

// WorkerManager fans jobs from one buffered channel out to a fixed set of
// goroutines. Jobs still buffered when the context ends are dropped.
type WorkerManager struct {
	numberOfWorker int
	jobChannel     chan interface{}
	do             WorkerHandler
	waiter         sync.WaitGroup
	stopOnce       sync.Once
	done           chan struct{}
}

func NewWorkerManager(bufferSize, numberOfWorkers int) *WorkerManager {
	if numberOfWorkers <= 0 {
		numberOfWorkers = 1
	}
	return &WorkerManager{
		numberOfWorker: numberOfWorkers,
		jobChannel:     make(chan interface{}, bufferSize),
		done:           make(chan struct{}),
	}
}

func (w *WorkerManager) GetUnreadCount() int64 {
	return int64(len(w.jobChannel))
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Enqueue blocks until the job is buffered, ctx ends or the manager stops.
func (w *WorkerManager) Enqueue(ctx context.Context, job interface{}) error {
	select {
	case <-w.done:
		return ErrStopped
	default:
	}
	select {
	case w.jobChannel <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return ErrStopped
	}
}

// Start launches the workers and blocks until ctx is cancelled or Exit is
// called, then waits for in-flight jobs to finish.
func (w *WorkerManager) Start(ctx context.Context) error {
	if w.do == nil {
		return errors.New("worker handler is not set")
	}
	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-w.done:
					return
				case job := <-w.jobChannel:
					w.do(ctx, index, job)
				}
			}
		}(i)
	}
	w.waiter.Wait()
	return ErrStopped
}

func (w *WorkerManager) Exit() {
	w.stopOnce.Do(func() {
		logger.Info("[worker] exit requested", "workers", w.numberOfWorker)
		close(w.done)
	})
}
