package workpool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type workerStatus int32

const (
	workerRunning workerStatus = iota
	workerPaused
	workerTerminating
	workerTerminated
)

// binarySemaphore gates a paused worker. release on an already-available
// semaphore is a no-op.
type binarySemaphore struct {
	ch chan struct{}
}

func newBinarySemaphore() *binarySemaphore {
	return &binarySemaphore{ch: make(chan struct{}, 1)}
}

func (s *binarySemaphore) acquire() {
	<-s.ch
}

func (s *binarySemaphore) release() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

type worker struct {
	pool *Pool
	id   string

	status   atomic.Int32
	statusMu sync.RWMutex

	pauseSem   *binarySemaphore
	lastActive atomic.Int64 // unix nanoseconds
	done       chan struct{}
}

func newWorker(p *Pool) *worker {
	w := &worker{
		pool:     p,
		id:       uuid.NewString(),
		pauseSem: newBinarySemaphore(),
		done:     make(chan struct{}),
	}
	w.status.Store(int32(workerRunning))
	// A fresh worker counts as idle for a full keep-alive period, so one
	// that finds no work is reap-eligible on the next monitor tick.
	w.lastActive.Store(time.Now().Add(-p.keepAlive()).UnixNano())
	go w.run()
	return w
}

func (w *worker) run() {
	defer close(w.done)
	p := w.pool

	for {
		// Self-state check.
		w.statusMu.Lock()
		switch workerStatus(w.status.Load()) {
		case workerTerminating:
			w.status.Store(int32(workerTerminated))
			w.statusMu.Unlock()
			logger().Debug("worker terminated", "worker", w.id)
			return
		case workerPaused:
			w.statusMu.Unlock()
			w.pauseSem.acquire()
			continue
		default:
			w.statusMu.Unlock()
		}

		// Acquire a task under the queue lock.
		var task func()
		p.queueMu.Lock()
		for !w.shouldWake() {
			p.taskCond.Wait()
		}

		if workerStatus(w.status.Load()) != workerRunning {
			p.queueMu.Unlock()
			continue
		}
		if p.terminating.Load() && p.tasks.Length() == 0 {
			// Pool is stopping and there is nothing left to drain.
			w.statusMu.Lock()
			w.status.Store(int32(workerTerminating))
			w.statusMu.Unlock()
			p.queueMu.Unlock()
			continue
		}
		task, _ = p.tasks.Remove().(func())
		if p.tasks.Length() == 0 {
			p.emptyCond.Broadcast()
		}
		p.queueMu.Unlock()

		// Execute with no locks held.
		p.busyCount.Add(1)
		w.invoke(task)
		p.busyCount.Add(-1)
		w.lastActive.Store(time.Now().UnixNano())
	}
}

// shouldWake is the wake predicate, evaluated with the queue lock held.
// It consults the pool's atomic terminating flag, never the pool status
// lock: the lock order forbids taking pool.status after pool.queue.
func (w *worker) shouldWake() bool {
	w.statusMu.RLock()
	st := workerStatus(w.status.Load())
	w.statusMu.RUnlock()

	return st != workerRunning ||
		w.pool.tasks.Length() > 0 ||
		w.pool.terminating.Load()
}

func (w *worker) invoke(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger().Error("task execution failed", "worker", w.id, "panic", r)
		}
	}()
	if task != nil {
		task()
	}
}

// terminate signals the worker to exit. A paused worker is released from
// its gate so it can observe the new state.
func (w *worker) terminate() {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()

	switch workerStatus(w.status.Load()) {
	case workerRunning:
		w.status.Store(int32(workerTerminating))
	case workerPaused:
		w.status.Store(int32(workerTerminating))
		w.pauseSem.release()
	}
}

func (w *worker) pause() {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	if workerStatus(w.status.Load()) == workerRunning {
		w.status.Store(int32(workerPaused))
	}
}

func (w *worker) resume() {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()
	if workerStatus(w.status.Load()) == workerPaused {
		w.status.Store(int32(workerRunning))
		w.pauseSem.release()
	}
}

// join blocks until the worker goroutine has exited. It must be called
// after the worker has been signaled to terminate.
func (w *worker) join() {
	<-w.done
}

// joined reports whether the worker goroutine has already exited.
func (w *worker) joined() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func (w *worker) idleSince() time.Time {
	return time.Unix(0, w.lastActive.Load())
}
