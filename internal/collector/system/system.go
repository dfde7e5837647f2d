// Package system implements a Collector reporting host-level gauges so the
// agent is runnable standalone (§C.5 of SPEC_FULL.md), grounded on the
// original implementation's crates/agent/src/collector/system.rs. It uses
// github.com/shirou/gopsutil, an indirect dependency of the teacher's
// go.mod, for the same cpu/mem/disk/host facts the original's `sysinfo`
// crate reports.
package system

import (
	"strconv"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"

	"github.com/sentinel-metrics/sentinel/internal/batch"
)

// Clock returns now in epoch milliseconds; overridable for tests.
type Clock func() int64

func systemClock() int64 { return time.Now().UnixMilli() }

// Toggle selects which metric families Collect gathers (§A "MetricsToggle").
type Toggle struct {
	CPU  bool
	Mem  bool
	Disk bool
}

// Collector reports real host gauges read through gopsutil: per-core CPU usage, memory
// totals, disk usage per mountpoint, and uptime.
type Collector struct {
	toggle Toggle
	clock  Clock
}

// New builds a system Collector gathering the families enabled in toggle.
func New(toggle Toggle) *Collector {
	return &Collector{toggle: toggle, clock: systemClock}
}

// WithClock overrides the collector's clock; used in tests.
func (c *Collector) WithClock(clk Clock) *Collector {
	c.clock = clk
	return c
}

// Collect implements collector.Collector.
func (c *Collector) Collect() ([]batch.Metric, error) {
	now := c.clock()
	var metrics []batch.Metric

	if c.toggle.CPU {
		percents, err := cpu.Percent(0, true)
		if err == nil {
			for i, pct := range percents {
				core := strconv.Itoa(i)
				metrics = append(metrics, gauge(
					batch.NormalizeName("cpu.core."+core+".usage_percent"),
					pct, map[string]string{"core": core}, now))
			}
		}
	}

	if c.toggle.Mem {
		if vm, err := mem.VirtualMemory(); err == nil {
			metrics = append(metrics,
				gauge("mem.total_bytes", float64(vm.Total), nil, now),
				gauge("mem.used_bytes", float64(vm.Used), nil, now),
				gauge("mem.available_bytes", float64(vm.Available), nil, now),
			)
		}
	}

	if c.toggle.Disk {
		if parts, err := disk.Partitions(false); err == nil {
			for _, p := range parts {
				usage, err := disk.Usage(p.Mountpoint)
				if err != nil {
					continue
				}
				labels := map[string]string{"device": batch.NormalizeName(p.Device)}
				metrics = append(metrics,
					gauge("disk.total_bytes", float64(usage.Total), labels, now),
					gauge("disk.available_bytes", float64(usage.Free), labels, now),
				)
			}
		}
	}

	if uptime, err := host.Uptime(); err == nil {
		metrics = append(metrics, gauge("uptime_seconds", float64(uptime), nil, now))
	}

	return metrics, nil
}

func gauge(name string, value float64, labels map[string]string, nowMs int64) batch.Metric {
	return batch.Metric{
		Name:        name,
		Labels:      labels,
		Kind:        batch.KindGauge,
		Double:      value,
		TimestampMs: nowMs,
	}
}
