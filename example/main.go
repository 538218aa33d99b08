// A small demo wiring the configuration registry and the worker pool
// together: the pool's capacity follows the conf directory across
// reloads while tasks run.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/corekit-go/corekit/config"
	"github.com/corekit-go/corekit/workpool"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	greeting, err := config.GetOrCreate("app.greeting", "hello", "banner printed per task")
	if err != nil {
		slog.Error("register failed", "error", err)
		os.Exit(1)
	}
	greeting.AddListener(func(old, new string) {
		slog.Info("greeting changed", "from", old, "to", new)
	})

	pool := workpool.New(workpool.DefaultConfig())

	// Initial load; call again (or with force) whenever the files change.
	if err := config.LoadFromConfDir("conf", false); err != nil {
		slog.Warn("config load", "error", err)
	}

	futures := make([]*workpool.Future[string], 0, 8)
	for i := 0; i < 8; i++ {
		fut, err := workpool.Submit(pool, func() (string, error) {
			time.Sleep(10 * time.Millisecond)
			return fmt.Sprintf("%s #%d", greeting.Value(), i), nil
		})
		if err != nil {
			slog.Error("submit failed", "error", err)
			continue
		}
		futures = append(futures, fut)
	}

	for _, fut := range futures {
		msg, err := fut.Wait()
		if err != nil {
			slog.Error("task failed", "error", err)
			continue
		}
		fmt.Println(msg)
	}

	stats := pool.Stats()
	slog.Info("pool before shutdown",
		"status", stats.Status.String(), "workers", stats.Workers)

	pool.Shutdown()
}
