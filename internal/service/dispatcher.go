package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/koyif/payouts/internal/domain"
	"github.com/koyif/payouts/pkg/logger"
)

type taskProcessor interface {
	Process(ctx context.Context, payoutID uuid.UUID, progress ProgressFunc) (Result, error)
}

type DispatcherOptions struct {
	Workers         int
	MaxRetries      int
	RetryDelay      time.Duration // base for exponential backoff
	InProgressDelay time.Duration // fixed countdown when another run holds the payout
	TaskTimeout     time.Duration // wall-clock budget per task run
}

func (o *DispatcherOptions) defaults() {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 30 * time.Second
	}
	if o.InProgressDelay <= 0 {
		o.InProgressDelay = 10 * time.Second
	}
	if o.TaskTimeout <= 0 {
		o.TaskTimeout = 30 * time.Minute
	}
}

// TaskHandle is the opaque token returned by Schedule. Result is valid only
// after Done is closed.
type TaskHandle struct {
	payoutID uuid.UUID
	done     chan struct{}
	result   Result
}

func (h *TaskHandle) PayoutID() uuid.UUID {
	return h.payoutID
}

func (h *TaskHandle) Done() <-chan struct{} {
	return h.done
}

func (h *TaskHandle) Result() Result {
	return h.result
}

func (h *TaskHandle) complete(result Result) {
	h.result = result
	close(h.done)
}

type task struct {
	payoutID uuid.UUID
	attempt  int
	handle   *TaskHandle
}

// Dispatcher runs payout processing tasks asynchronously on a fixed worker
// pool with at-least-once semantics: failed runs are re-enqueued with
// exponential backoff until the retry budget is exhausted.
type Dispatcher struct {
	processor taskProcessor
	opts      DispatcherOptions

	tasks  chan *task
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewDispatcher(processor taskProcessor, opts DispatcherOptions) *Dispatcher {
	opts.defaults()

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		processor: processor,
		opts:      opts,
		tasks:     make(chan *task, 1024),
		ctx:       ctx,
		cancel:    cancel,
	}

	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

// Schedule enqueues a processing task for the payout after the given delay.
// Callers must invoke it only once the payout row is durably committed.
func (d *Dispatcher) Schedule(payoutID uuid.UUID, delay time.Duration) *TaskHandle {
	handle := &TaskHandle{
		payoutID: payoutID,
		done:     make(chan struct{}),
	}

	logger.Log.Info(
		"payout task scheduled",
		logger.String("payout_id", payoutID.String()),
		logger.Duration("delay", delay),
	)

	d.enqueue(&task{payoutID: payoutID, handle: handle}, delay)

	return handle
}

// Stop cancels the workers and waits for in-flight tasks to finish. Queued
// tasks that never ran leave their handles incomplete.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) enqueue(t *task, delay time.Duration) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()

			select {
			case <-d.ctx.Done():
				return
			case <-timer.C:
			}
		}

		select {
		case <-d.ctx.Done():
		case d.tasks <- t:
		}
	}()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case t := <-d.tasks:
			d.run(t)
		}
	}
}

func (d *Dispatcher) run(t *task) {
	ctx, cancel := context.WithTimeout(d.ctx, d.opts.TaskTimeout)
	defer cancel()

	result, err := d.processor.Process(ctx, t.payoutID, d.reportProgress(t.payoutID))
	if err == nil {
		logger.Log.Info(
			"payout task finished",
			logger.String("payout_id", t.payoutID.String()),
			logger.String("status", string(result.Status)),
			logger.String("message", result.Message),
		)
		t.handle.complete(result)
		return
	}

	t.attempt++
	if t.attempt > d.opts.MaxRetries {
		logger.Log.Error(
			"payout task failed, retries exhausted",
			logger.String("payout_id", t.payoutID.String()),
			logger.Int("attempts", t.attempt),
			logger.Error(err),
		)
		t.handle.complete(Result{PayoutID: t.payoutID, Error: err.Error()})
		return
	}

	delay := d.retryDelay(t.attempt, err)
	logger.Log.Warn(
		"payout task failed, scheduling retry",
		logger.String("payout_id", t.payoutID.String()),
		logger.Int("attempt", t.attempt),
		logger.Duration("delay", delay),
		logger.Error(err),
	)

	d.enqueue(t, delay)
}

func (d *Dispatcher) retryDelay(attempt int, err error) time.Duration {
	if errors.Is(err, domain.ErrProcessingInProgress) {
		return d.opts.InProgressDelay
	}

	return d.opts.RetryDelay << (attempt - 1)
}

func (d *Dispatcher) reportProgress(payoutID uuid.UUID) ProgressFunc {
	return func(stage string, current, total int) {
		logger.Log.Info(
			"payout progress",
			logger.String("payout_id", payoutID.String()),
			logger.String("stage", stage),
			logger.Int("current", current),
			logger.Int("total", total),
		)
	}
}
