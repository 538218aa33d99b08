// Package workpool provides a dynamic pool of workers executing deferred
// computations under a five-state lifecycle.
//
// A pool starts RUNNING with its core worker count. Tasks enter through
// Submit, which returns a Future for the result; admission is controlled
// by the pool state and an optional queue cap. Pause stops execution
// without rejecting submissions, Resume restarts it, and Shutdown drains
// every admitted task before joining all workers and terminating the
// pool for good.
//
// With dynamic scaling enabled, a monitor goroutine periodically grows
// the pool by one worker when every worker is busy and a backlog exists,
// and retires workers beyond the core count once they have been idle for
// the keep-alive duration. Retired workers whose goroutine may still be
// mid-task are parked in a zombie set and collected later.
//
// The pool registers itself with the config package under the name
// "threadpool", so reloading the configuration directory adjusts its
// capacity parameters at runtime.
//
// Lock ordering inside the package is fixed as
// pool status → worker sets (live, zombie) → task queue → worker status;
// code holding the queue lock reads the pool's atomic terminating flag
// and never takes the pool status lock.
package workpool
