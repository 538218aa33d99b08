package workpool

import "errors"

var (
	// ErrPoolNotAccepting is returned by Submit when the pool is neither
	// RUNNING nor PAUSED.
	ErrPoolNotAccepting = errors.New("pool is in a state where it cannot accept tasks")

	// ErrQueueFull is returned by Submit when the task queue has reached
	// its configured cap.
	ErrQueueFull = errors.New("task queue is full")

	// ErrBadState is returned by Increase and Decrease outside the
	// RUNNING and PAUSED states.
	ErrBadState = errors.New("operation requires a RUNNING or PAUSED pool")
)
