package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/koyif/payouts/internal/domain"
)

type stubProcessor struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, payoutID uuid.UUID) (Result, error)
}

func (p *stubProcessor) Process(_ context.Context, payoutID uuid.UUID, progress ProgressFunc) (Result, error) {
	p.mu.Lock()
	p.calls++
	call := p.calls
	p.mu.Unlock()

	if progress != nil {
		progress("fetch", 1, 8)
	}

	return p.fn(call, payoutID)
}

func (p *stubProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func waitDone(t *testing.T, handle *TaskHandle) Result {
	t.Helper()

	select {
	case <-handle.Done():
		return handle.Result()
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish in time")
		return Result{}
	}
}

func testOptions() DispatcherOptions {
	return DispatcherOptions{
		Workers:         2,
		MaxRetries:      3,
		RetryDelay:      time.Millisecond,
		InProgressDelay: time.Millisecond,
		TaskTimeout:     time.Second,
	}
}

func TestDispatcherRunsScheduledTask(t *testing.T) {
	id := uuid.New()
	processor := &stubProcessor{fn: func(_ int, payoutID uuid.UUID) (Result, error) {
		return Result{Success: true, PayoutID: payoutID, Status: domain.StatusCompleted}, nil
	}}

	d := NewDispatcher(processor, testOptions())
	defer d.Stop()

	handle := d.Schedule(id, 0)
	result := waitDone(t, handle)

	if !result.Success || result.PayoutID != id {
		t.Errorf("unexpected result: %+v", result)
	}
	if processor.callCount() != 1 {
		t.Errorf("processor called %d times, want 1", processor.callCount())
	}
}

func TestDispatcherHonorsDelay(t *testing.T) {
	processor := &stubProcessor{fn: func(int, uuid.UUID) (Result, error) {
		return Result{Success: true}, nil
	}}

	d := NewDispatcher(processor, testOptions())
	defer d.Stop()

	start := time.Now()
	handle := d.Schedule(uuid.New(), 50*time.Millisecond)
	waitDone(t, handle)

	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("task ran after %v, expected at least the 50ms delay", elapsed)
	}
}

func TestDispatcherRetriesUntilSuccess(t *testing.T) {
	processor := &stubProcessor{fn: func(call int, payoutID uuid.UUID) (Result, error) {
		if call < 3 {
			return Result{}, errors.New("connection timeout")
		}
		return Result{Success: true, PayoutID: payoutID}, nil
	}}

	d := NewDispatcher(processor, testOptions())
	defer d.Stop()

	result := waitDone(t, d.Schedule(uuid.New(), 0))

	if !result.Success {
		t.Errorf("expected success after retries, got %+v", result)
	}
	if processor.callCount() != 3 {
		t.Errorf("processor called %d times, want 3", processor.callCount())
	}
}

func TestDispatcherExhaustsRetries(t *testing.T) {
	processor := &stubProcessor{fn: func(int, uuid.UUID) (Result, error) {
		return Result{}, errors.New("broker unreachable")
	}}

	opts := testOptions()
	opts.MaxRetries = 2

	d := NewDispatcher(processor, opts)
	defer d.Stop()

	id := uuid.New()
	result := waitDone(t, d.Schedule(id, 0))

	if result.Success {
		t.Errorf("expected a failure result, got %+v", result)
	}
	if result.Error == "" || result.PayoutID != id {
		t.Errorf("unexpected result: %+v", result)
	}
	// initial run plus two retries
	if processor.callCount() != 3 {
		t.Errorf("processor called %d times, want 3", processor.callCount())
	}
}

func TestDispatcherDoesNotRetryStructuredResults(t *testing.T) {
	processor := &stubProcessor{fn: func(_ int, payoutID uuid.UUID) (Result, error) {
		return Result{PayoutID: payoutID, Error: "payout not found"}, nil
	}}

	d := NewDispatcher(processor, testOptions())
	defer d.Stop()

	result := waitDone(t, d.Schedule(uuid.New(), 0))

	if result.Error != "payout not found" {
		t.Errorf("unexpected result: %+v", result)
	}
	if processor.callCount() != 1 {
		t.Errorf("processor called %d times, want 1", processor.callCount())
	}
}

func TestDispatcherRetriesInProgressPayout(t *testing.T) {
	processor := &stubProcessor{fn: func(call int, payoutID uuid.UUID) (Result, error) {
		if call == 1 {
			return Result{}, domain.ErrProcessingInProgress
		}
		return Result{Success: true, AlreadyCompleted: true, PayoutID: payoutID}, nil
	}}

	d := NewDispatcher(processor, testOptions())
	defer d.Stop()

	result := waitDone(t, d.Schedule(uuid.New(), 0))

	if !result.AlreadyCompleted {
		t.Errorf("expected already-completed result after retry, got %+v", result)
	}
	if processor.callCount() != 2 {
		t.Errorf("processor called %d times, want 2", processor.callCount())
	}
}

func TestDispatcherStop(t *testing.T) {
	processor := &stubProcessor{fn: func(int, uuid.UUID) (Result, error) {
		return Result{Success: true}, nil
	}}

	d := NewDispatcher(processor, testOptions())

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}
