package workpool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/corekit-go/corekit/config"
)

// Status is the pool lifecycle state.
type Status int32

const (
	// StatusRunning accepts submissions; workers execute.
	StatusRunning Status = iota
	// StatusPaused accepts submissions; workers are gated.
	StatusPaused
	// StatusShutdown rejects submissions; workers drain the queue.
	StatusShutdown
	// StatusTerminating releases workers and the monitor.
	StatusTerminating
	// StatusTerminated is terminal; the pool cannot be reused.
	StatusTerminated
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "RUNNING"
	case StatusPaused:
		return "PAUSED"
	case StatusShutdown:
		return "SHUTDOWN"
	case StatusTerminating:
		return "TERMINATING"
	case StatusTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// Pool executes submitted tasks on a dynamically sized set of workers.
// Create one with New; a Pool must not be copied.
type Pool struct {
	status   atomic.Int32
	statusMu sync.Mutex

	maxTaskCount atomic.Uint64
	tasks        *queue.Queue
	queueMu      sync.Mutex
	taskCond     *sync.Cond
	emptyCond    *sync.Cond

	workers   []*worker
	workersMu sync.Mutex

	// Workers signaled to terminate whose goroutine may still be inside a
	// task; their join is deferred to the monitor or Shutdown.
	zombies   []*worker
	zombiesMu sync.Mutex

	terminating atomic.Bool

	monitorStop chan struct{}
	monitorDone chan struct{}

	busyCount         atomic.Int64
	coreThreadCount   atomic.Uint64
	maxThreadCount    atomic.Uint64
	keepAliveMs       atomic.Uint64
	monitorIntervalMs atomic.Uint64

	configVar  *config.Var[Config]
	listenerID uint64
}

// New builds a RUNNING pool with cfg.CoreThreadCount workers, publishes
// the "threadpool" configuration variable and subscribes to its changes.
// The scaling monitor is launched only when cfg.EnableDynamicScaling is
// set; it is never started later, even if a configuration reload implies
// dynamic limits.
func New(cfg Config) *Pool {
	p := &Pool{
		tasks:       queue.New(),
		monitorStop: make(chan struct{}),
	}
	p.taskCond = sync.NewCond(&p.queueMu)
	p.emptyCond = sync.NewCond(&p.queueMu)
	p.status.Store(int32(StatusRunning))
	p.maxTaskCount.Store(cfg.MaxTaskCount)
	p.coreThreadCount.Store(cfg.CoreThreadCount)
	p.maxThreadCount.Store(cfg.MaxThreadCount)
	p.keepAliveMs.Store(cfg.KeepAliveTime)
	p.monitorIntervalMs.Store(cfg.MonitorInterval)

	if cfg.EnableDynamicScaling {
		p.monitorDone = make(chan struct{})
		go p.monitorLoop()
		logger().Info("pool dynamic scaling enabled",
			"monitor_interval_ms", cfg.MonitorInterval)
	} else {
		logger().Info("pool dynamic scaling disabled")
	}

	p.workersMu.Lock()
	for i := uint64(0); i < cfg.CoreThreadCount; i++ {
		p.workers = append(p.workers, newWorker(p))
	}
	p.workersMu.Unlock()

	v, err := config.GetOrCreate(configVarName, cfg, "worker pool runtime configuration")
	if err != nil {
		logger().Error("failed to bind pool configuration", "error", err)
	} else {
		p.configVar = v
		p.listenerID = v.AddListener(p.applyConfig)
	}
	return p
}

// Status returns the current lifecycle state.
func (p *Pool) Status() Status {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	return Status(p.status.Load())
}

// WorkerCount returns the number of live workers (zombies excluded).
func (p *Pool) WorkerCount() int {
	p.workersMu.Lock()
	defer p.workersMu.Unlock()
	return len(p.workers)
}

// QueuedTaskCount returns the number of tasks waiting in the queue.
func (p *Pool) QueuedTaskCount() int {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	return p.tasks.Length()
}

// BusyCount returns the number of workers currently executing a task.
func (p *Pool) BusyCount() int {
	return int(p.busyCount.Load())
}

// SetMaxTaskCount changes the queue cap. Zero means unbounded.
func (p *Pool) SetMaxTaskCount(n uint64) {
	p.maxTaskCount.Store(n)
}

func (p *Pool) keepAlive() time.Duration {
	return time.Duration(p.keepAliveMs.Load()) * time.Millisecond
}

func (p *Pool) monitorInterval() time.Duration {
	return time.Duration(p.monitorIntervalMs.Load()) * time.Millisecond
}

func (p *Pool) queueFull() bool {
	max := p.maxTaskCount.Load()
	if max == 0 {
		return false
	}
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	return uint64(p.tasks.Length()) >= max
}

// enqueue admits a type-erased task. Admission happens under the status
// lock so the state cannot change mid-submit.
func (p *Pool) enqueue(task func()) error {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()

	st := Status(p.status.Load())
	if st != StatusRunning && st != StatusPaused {
		logger().Error("task rejected: pool not accepting", "status", st.String())
		return fmt.Errorf("%w (status %s)", ErrPoolNotAccepting, st)
	}
	if p.queueFull() {
		logger().Error("task rejected: queue full")
		return ErrQueueFull
	}

	p.queueMu.Lock()
	p.tasks.Add(task)
	p.queueMu.Unlock()
	p.taskCond.Signal()
	return nil
}

// Pause moves a RUNNING pool to PAUSED. Workers stop dequeuing and block
// at their pause gate; submissions are still accepted. Redundant calls
// and calls from other states are ignored.
func (p *Pool) Pause() {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()

	if Status(p.status.Load()) != StatusRunning {
		return
	}
	p.status.Store(int32(StatusPaused))
	logger().Info("pool status", "from", StatusRunning.String(), "to", StatusPaused.String())

	p.workersMu.Lock()
	for _, w := range p.workers {
		w.pause()
	}
	p.workersMu.Unlock()

	// Force waiting workers to re-check their own state.
	p.taskCond.Broadcast()
}

// Resume moves a PAUSED pool back to RUNNING. Redundant calls and calls
// from other states are ignored.
func (p *Pool) Resume() {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.resumeLocked()
}

func (p *Pool) resumeLocked() {
	if Status(p.status.Load()) != StatusPaused {
		return
	}
	p.status.Store(int32(StatusRunning))
	logger().Info("pool status", "from", StatusPaused.String(), "to", StatusRunning.String())

	p.workersMu.Lock()
	for _, w := range p.workers {
		w.resume()
	}
	p.workersMu.Unlock()

	// The queue may have filled while paused.
	p.taskCond.Broadcast()
}

// Shutdown stops the pool gracefully: no new submissions, every admitted
// task runs to completion, then all workers and the monitor are joined
// and the pool becomes TERMINATED. A PAUSED pool is resumed first so its
// workers can drain the queue. Calls on an already stopped pool return
// immediately.
func (p *Pool) Shutdown() {
	p.statusMu.Lock()
	switch Status(p.status.Load()) {
	case StatusPaused:
		p.resumeLocked()
		fallthrough
	case StatusRunning:
		p.status.Store(int32(StatusShutdown))
		logger().Info("pool status", "from", StatusRunning.String(), "to", StatusShutdown.String())
	default:
		p.statusMu.Unlock()
		return
	}
	p.statusMu.Unlock()

	p.queueMu.Lock()
	for p.tasks.Length() > 0 {
		p.emptyCond.Wait()
	}
	p.queueMu.Unlock()

	p.status.Store(int32(StatusTerminating))
	p.terminating.Store(true)
	p.taskCond.Broadcast()
	close(p.monitorStop)
	logger().Info("pool status", "from", StatusShutdown.String(), "to", StatusTerminating.String())

	// A worker may have been between its wake predicate and Wait.
	p.taskCond.Broadcast()

	p.workersMu.Lock()
	live := p.workers
	p.workers = nil
	p.workersMu.Unlock()
	for _, w := range live {
		w.join()
	}

	p.zombiesMu.Lock()
	zombies := p.zombies
	p.zombies = nil
	p.zombiesMu.Unlock()
	for _, w := range zombies {
		w.join()
	}

	if p.monitorDone != nil {
		<-p.monitorDone
	}

	if p.configVar != nil {
		p.configVar.DelListener(p.listenerID)
	}

	p.status.Store(int32(StatusTerminated))
	logger().Info("pool status", "from", StatusTerminating.String(), "to", StatusTerminated.String())
}

// Increase spawns n new workers. Allowed only while RUNNING or PAUSED.
func (p *Pool) Increase(n int) error {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	return p.increaseLocked(n)
}

func (p *Pool) increaseLocked(n int) error {
	st := Status(p.status.Load())
	if st != StatusRunning && st != StatusPaused {
		logger().Error("increase rejected", "status", st.String())
		return fmt.Errorf("%w: increase (status %s)", ErrBadState, st)
	}

	p.workersMu.Lock()
	paused := st == StatusPaused
	if paused {
		// Hold the queue lock so a new worker cannot dequeue a task
		// before it has been paused.
		p.queueMu.Lock()
	}
	for i := 0; i < n; i++ {
		w := newWorker(p)
		if paused {
			w.pause()
		}
		p.workers = append(p.workers, w)
	}
	if paused {
		p.queueMu.Unlock()
	}
	p.workersMu.Unlock()

	logger().Info("pool increased workers", "count", n)
	return nil
}

// Decrease signals n workers from the tail of the live set to terminate
// and moves them to the zombie set; their joins are deferred. n is
// clipped to the live count. Allowed only while RUNNING or PAUSED.
func (p *Pool) Decrease(n int) error {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	return p.decreaseLocked(n)
}

func (p *Pool) decreaseLocked(n int) error {
	st := Status(p.status.Load())
	if st != StatusRunning && st != StatusPaused {
		logger().Error("decrease rejected", "status", st.String())
		return fmt.Errorf("%w: decrease (status %s)", ErrBadState, st)
	}

	p.workersMu.Lock()
	p.zombiesMu.Lock()

	if n > len(p.workers) {
		n = len(p.workers)
	}
	if n > 0 {
		cut := len(p.workers) - n
		doomed := p.workers[cut:]
		for _, w := range doomed {
			w.terminate()
		}
		p.zombies = append(p.zombies, doomed...)
		p.workers = p.workers[:cut:cut]

		// Wake waiting workers so the doomed ones observe their state.
		p.taskCond.Broadcast()
	}

	p.zombiesMu.Unlock()
	p.workersMu.Unlock()

	logger().Info("pool decreased workers", "count", n)
	return nil
}
