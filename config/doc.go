// Package config provides a process-wide registry of typed, hot-reloadable
// configuration variables bound to YAML configuration trees.
//
// A variable is created once with GetOrCreate and keeps its name and type
// for the life of the process. Values arrive from YAML documents — a whole
// tree via LoadFromYAML, a directory of .yml files via LoadFromConfDir
// (with per-file modification-time caching), or a single file of any
// supported format via LoadFile. Callers observe changes through
// per-variable listeners invoked with the old and new value.
//
//	workers, _ := config.GetOrCreate("workers.io.thread_num", 4, "io worker count")
//	workers.AddListener(func(old, new int) {
//	    resize(new)
//	})
//	config.LoadFromConfDir("conf", false)
//
// Thread safety: the registry map and every variable are guarded by
// read-write mutexes, so concurrent GetOrCreate, Get, SetValue and reads
// are safe. Listener callbacks run inline on the goroutine that changed
// the value, from a snapshot of the listener set, so a callback may add
// or remove listeners; a callback must not call SetValue on its own
// variable. The intended usage remains single-writer and read-dominated:
// loading happens at startup or at explicit reload points.
package config
