// Package collector defines the capability the agent's scheduler drives to
// gather metrics each tick (§4.5, §C.5 of SPEC_FULL.md — grounded on the
// original implementation's crates/agent/src/collector/traits.rs). It is
// deliberately narrow: a single Collect method returning a slice of
// batch.Metric. This is also the seam a future sandboxed plugin-backed
// collector (the Non-goal "WASM plugin sandboxing") would implement; no
// sandboxing code is added here.
package collector

import "github.com/sentinel-metrics/sentinel/internal/batch"

// Collector gathers a fresh set of metrics. Implementations must be safe for
// concurrent use only if invoked from more than one scheduler, which this
// system's design never does per §4.5.
type Collector interface {
	Collect() ([]batch.Metric, error)
}
