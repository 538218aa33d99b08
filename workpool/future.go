package workpool

import (
	"context"
	"fmt"
)

// PanicError carries a value recovered from a panicking task.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Future is the completion handle for a submitted task. The submitter
// awaits the result or the task's error; a panicking task surfaces as a
// *PanicError.
type Future[R any] struct {
	done chan struct{}
	val  R
	err  error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

func (f *Future[R]) complete(val R, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Done returns a channel closed when the task has finished.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task has finished and returns its result.
func (f *Future[R]) Wait() (R, error) {
	<-f.done
	return f.val, f.err
}

// WaitContext is Wait with a deadline: it returns ctx.Err() if the
// context ends first. The task itself keeps running either way.
func (f *Future[R]) WaitContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Submit wraps fn into a nullary task that records its result in the
// returned Future, and enqueues it. It fails with ErrPoolNotAccepting
// outside the RUNNING and PAUSED states and with ErrQueueFull when the
// queue cap is reached. Submission while PAUSED is accepted; the task
// waits in the queue until Resume.
//
// Submit is a free function because Go methods cannot introduce type
// parameters.
func Submit[R any](p *Pool, fn func() (R, error)) (*Future[R], error) {
	fut := newFuture[R]()
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				logger().Error("submitted task panicked", "panic", r)
				var zero R
				fut.complete(zero, &PanicError{Value: r})
			}
		}()
		val, err := fn()
		fut.complete(val, err)
	}

	if err := p.enqueue(task); err != nil {
		return nil, err
	}
	return fut, nil
}

// Execute submits a task with no result value.
func (p *Pool) Execute(fn func()) (*Future[struct{}], error) {
	return Submit(p, func() (struct{}, error) {
		fn()
		return struct{}{}, nil
	})
}
