// Package worker runs tasks off the caller's goroutine and talks to it only
// through request and response messages. Every message carries the id of the
// request it answers, so callers decide staleness by comparing ids.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrTerminated is returned by Post after Terminate.
var ErrTerminated = errors.New("worker terminated")

// Request asks the worker to run its task on Payload.
type Request[P any] struct {
	ID      uint64
	Payload P
}

// Response answers the request with the same ID.
type Response[R any] struct {
	ID     uint64
	Result R
	Err    error
}

// Task is the work a Worker performs for each request.
type Task[P, R any] func(ctx context.Context, payload P) (R, error)

// Worker runs one Task per posted request. Responses arrive on Responses in
// completion order. Late responses after Terminate are dropped.
type Worker[P, R any] struct {
	task      Task[P, R]
	ctx       context.Context
	cancel    context.CancelFunc
	responses chan Response[R]

	mu   sync.Mutex
	done bool
	wg   sync.WaitGroup
}

// Start returns a running worker for task.
func Start[P, R any](task Task[P, R]) *Worker[P, R] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker[P, R]{
		task:      task,
		ctx:       ctx,
		cancel:    cancel,
		responses: make(chan Response[R], 16),
	}
}

// Responses delivers completed requests.
func (w *Worker[P, R]) Responses() <-chan Response[R] {
	return w.responses
}

// Post queues req. It does not block on the task.
func (w *Worker[P, R]) Post(req Request[P]) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return ErrTerminated
	}
	w.wg.Add(1)
	go w.run(req)
	return nil
}

func (w *Worker[P, R]) run(req Request[P]) {
	defer w.wg.Done()
	resp := Response[R]{ID: req.ID}
	func() {
		defer func() {
			if r := recover(); r != nil {
				resp.Err = fmt.Errorf("worker task panicked: %v", r)
			}
		}()
		resp.Result, resp.Err = w.task(w.ctx, req.Payload)
	}()

	if w.ctx.Err() != nil {
		return
	}
	select {
	case w.responses <- resp:
	case <-w.ctx.Done():
	}
}

// Call posts one request and waits for its response. It returns ctx's error
// if ctx ends first, and ErrTerminated if the worker is stopped meanwhile.
func (w *Worker[P, R]) Call(ctx context.Context, id uint64, payload P) (R, error) {
	var zero R
	if err := w.Post(Request[P]{ID: id, Payload: payload}); err != nil {
		return zero, err
	}
	for {
		select {
		case resp := <-w.responses:
			if resp.ID != id {
				continue
			}
			return resp.Result, resp.Err
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-w.ctx.Done():
			return zero, ErrTerminated
		}
	}
}

// Terminate stops the worker. In-flight tasks see a cancelled context and
// their results are discarded. Terminate waits for them to return.
func (w *Worker[P, R]) Terminate() {
	w.mu.Lock()
	if w.done {
		w.mu.Unlock()
		return
	}
	w.done = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
}

// Terminated reports whether Terminate has been called.
func (w *Worker[P, R]) Terminated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}
