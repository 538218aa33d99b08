package workpool

import "github.com/prometheus/client_golang/prometheus"

// Stats is a point-in-time snapshot of pool state.
type Stats struct {
	Status  Status
	Workers int
	Busy    int
	Queued  int
	Zombies int
}

// Stats returns a snapshot of the pool's runtime state.
func (p *Pool) Stats() Stats {
	p.zombiesMu.Lock()
	zombies := len(p.zombies)
	p.zombiesMu.Unlock()

	return Stats{
		Status:  p.Status(),
		Workers: p.WorkerCount(),
		Busy:    p.BusyCount(),
		Queued:  p.QueuedTaskCount(),
		Zombies: zombies,
	}
}

// Collector exposes pool gauges to a Prometheus registry.
type Collector struct {
	pool *Pool

	workers *prometheus.Desc
	busy    *prometheus.Desc
	queued  *prometheus.Desc
	zombies *prometheus.Desc
}

// NewCollector builds a prometheus.Collector over p. Metric names are
// <namespace>_workpool_<name>; with an empty namespace they start with
// workpool_.
func NewCollector(p *Pool, namespace string) *Collector {
	fqName := func(name string) string {
		return prometheus.BuildFQName(namespace, "workpool", name)
	}
	return &Collector{
		pool:    p,
		workers: prometheus.NewDesc(fqName("workers"), "Live workers in the pool.", nil, nil),
		busy:    prometheus.NewDesc(fqName("busy_workers"), "Workers currently executing a task.", nil, nil),
		queued:  prometheus.NewDesc(fqName("queued_tasks"), "Tasks waiting in the queue.", nil, nil),
		zombies: prometheus.NewDesc(fqName("zombie_workers"), "Terminated workers awaiting join.", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.workers
	ch <- c.busy
	ch <- c.queued
	ch <- c.zombies
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(s.Workers))
	ch <- prometheus.MustNewConstMetric(c.busy, prometheus.GaugeValue, float64(s.Busy))
	ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(s.Queued))
	ch <- prometheus.MustNewConstMetric(c.zombies, prometheus.GaugeValue, float64(s.Zombies))
}
