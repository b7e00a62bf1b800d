package ocr

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fra-atlas/platform/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

var ErrQueueFull = errors.New("extraction queue full")

// Dispatcher feeds documents to a pool of extraction workers through a
// bounded queue. Enqueue never blocks; a full queue is reported to the
// caller, which marks the document failed so it can be reprocessed.
type Dispatcher struct {
	orchestrator *Orchestrator
	queue        chan string
	workers      int

	// Optional cross-process guard. The database state machine already
	// prevents double processing; the lock just avoids wasted attempts
	// when multiple replicas share one queue topic.
	locks   *redis.Client
	lockTTL time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

func NewDispatcher(orchestrator *Orchestrator, workers, queueSize int, locks *redis.Client, lockTTL time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		orchestrator: orchestrator,
		queue:        make(chan string, queueSize),
		workers:      workers,
		locks:        locks,
		lockTTL:      lockTTL,
	}
}

// Start launches the worker pool. Workers run until Shutdown.
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}

	logger.WithFields(map[string]interface{}{
		"workers":    d.workers,
		"queue_size": cap(d.queue),
	}).Info("extraction dispatcher started")
}

// Enqueue schedules one document for extraction. Returns ErrQueueFull
// instead of blocking the upload request path.
func (d *Dispatcher) Enqueue(ctx context.Context, documentID string) error {
	select {
	case d.queue <- documentID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting work, drains the queue and waits for
// in-flight attempts to finish.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.once.Do(func() {
		close(d.queue)
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if d.cancel != nil {
			d.cancel()
		}
		return nil
	case <-ctx.Done():
		// Interrupt whatever is still running.
		if d.cancel != nil {
			d.cancel()
		}
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	for documentID := range d.queue {
		if !d.acquireLock(ctx, documentID) {
			logger.WithField("document_id", documentID).Debug("document locked by another worker, skipping")
			continue
		}

		if err := d.orchestrator.Process(ctx, documentID); err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"document_id": documentID,
				"worker":      id,
			}).Error("extraction attempt failed")
		}

		d.releaseLock(ctx, documentID)
	}
}

func (d *Dispatcher) acquireLock(ctx context.Context, documentID string) bool {
	if d.locks == nil {
		return true
	}
	ok, err := d.locks.SetNX(ctx, "doclock:"+documentID, "1", d.lockTTL).Result()
	if err != nil {
		// A broken lock service must not stall the pipeline; the
		// database guard still prevents double processing.
		logger.Log.WithError(err).Warn("document lock unavailable, proceeding without it")
		return true
	}
	return ok
}

func (d *Dispatcher) releaseLock(ctx context.Context, documentID string) {
	if d.locks == nil {
		return
	}
	if err := d.locks.Del(ctx, "doclock:"+documentID).Err(); err != nil {
		logger.Log.WithError(err).Debug("failed to release document lock")
	}
}
