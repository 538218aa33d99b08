package workpool

import (
	"time"

	"gopkg.in/yaml.v3"
)

// configVarName is the registry name the pool publishes itself under.
const configVarName = "threadpool"

// Config holds the pool's capacity parameters. Durations are plain
// millisecond counts so they can live in atomics and in YAML as bare
// integers:
//
//	threadpool:
//	  max_task_count: 0
//	  core_thread_count: 1
//	  max_thread_count: 8
//	  keep_alive_time: 5000
//	  monitor_interval: 200
type Config struct {
	// MaxTaskCount caps the task queue; 0 means unbounded.
	MaxTaskCount uint64 `yaml:"max_task_count"`
	// CoreThreadCount is the worker count the pool keeps at minimum.
	CoreThreadCount uint64 `yaml:"core_thread_count"`
	// MaxThreadCount bounds growth under dynamic scaling.
	MaxThreadCount uint64 `yaml:"max_thread_count"`
	// KeepAliveTime is the idle time, in milliseconds, after which a
	// non-core worker becomes a shrink candidate.
	KeepAliveTime uint64 `yaml:"keep_alive_time"`
	// MonitorInterval is the monitor tick period in milliseconds.
	MonitorInterval uint64 `yaml:"monitor_interval"`
	// EnableDynamicScaling launches the monitor at construction. It is
	// not reconfigurable afterwards.
	EnableDynamicScaling bool `yaml:"enable_dynamic_scaling"`
}

// DefaultConfig returns the pool defaults.
func DefaultConfig() Config {
	return Config{
		MaxTaskCount:         0,
		CoreThreadCount:      1,
		MaxThreadCount:       8,
		KeepAliveTime:        5000,
		MonitorInterval:      200,
		EnableDynamicScaling: true,
	}
}

// KeepAlive returns KeepAliveTime as a duration.
func (c Config) KeepAlive() time.Duration {
	return time.Duration(c.KeepAliveTime) * time.Millisecond
}

// Interval returns MonitorInterval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.MonitorInterval) * time.Millisecond
}

// UnmarshalYAML decodes over the defaults, so fields missing from the
// document come out at their default value.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type plain Config
	p := plain(DefaultConfig())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = Config(p)
	return nil
}

// Equal ignores EnableDynamicScaling: scaling cannot be reconfigured
// after construction, so a change to the flag alone is not a change.
func (c Config) Equal(other Config) bool {
	return c.MaxTaskCount == other.MaxTaskCount &&
		c.CoreThreadCount == other.CoreThreadCount &&
		c.MaxThreadCount == other.MaxThreadCount &&
		c.KeepAliveTime == other.KeepAliveTime &&
		c.MonitorInterval == other.MonitorInterval
}

// Config returns the pool's current capacity parameters.
func (p *Pool) Config() Config {
	return Config{
		MaxTaskCount:         p.maxTaskCount.Load(),
		CoreThreadCount:      p.coreThreadCount.Load(),
		MaxThreadCount:       p.maxThreadCount.Load(),
		KeepAliveTime:        p.keepAliveMs.Load(),
		MonitorInterval:      p.monitorIntervalMs.Load(),
		EnableDynamicScaling: p.monitorDone != nil,
	}
}

// applyConfig is the registry listener: it stores each changed field
// into the pool's atomics so task admission, newly spawned workers and
// the monitor pick the new values up without locking.
func (p *Pool) applyConfig(oldCfg, newCfg Config) {
	logger().Info("pool configuration changed")

	if oldCfg.MaxTaskCount != newCfg.MaxTaskCount {
		logger().Info("max_task_count changed",
			"from", oldCfg.MaxTaskCount, "to", newCfg.MaxTaskCount)
		p.maxTaskCount.Store(newCfg.MaxTaskCount)
	}
	if oldCfg.CoreThreadCount != newCfg.CoreThreadCount {
		logger().Info("core_thread_count changed",
			"from", oldCfg.CoreThreadCount, "to", newCfg.CoreThreadCount)
		p.coreThreadCount.Store(newCfg.CoreThreadCount)
	}
	if oldCfg.MaxThreadCount != newCfg.MaxThreadCount {
		logger().Info("max_thread_count changed",
			"from", oldCfg.MaxThreadCount, "to", newCfg.MaxThreadCount)
		p.maxThreadCount.Store(newCfg.MaxThreadCount)
	}
	if oldCfg.KeepAliveTime != newCfg.KeepAliveTime {
		logger().Info("keep_alive_time changed",
			"from_ms", oldCfg.KeepAliveTime, "to_ms", newCfg.KeepAliveTime)
		p.keepAliveMs.Store(newCfg.KeepAliveTime)
	}
	if oldCfg.MonitorInterval != newCfg.MonitorInterval {
		logger().Info("monitor_interval changed",
			"from_ms", oldCfg.MonitorInterval, "to_ms", newCfg.MonitorInterval)
		p.monitorIntervalMs.Store(newCfg.MonitorInterval)
	}
}
