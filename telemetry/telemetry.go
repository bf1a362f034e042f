// Package telemetry holds the process-wide mining counters.
//
// All values are plain atomics: they are monotonic counters and a boolean
// flag with no cross-field consistency requirement, so workers and the
// connection supervisor mutate them opportunistically and readers tolerate
// transient staleness. Nothing here participates in the solving logic.
package telemetry

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Counters aggregates the miner's observable state: connectivity, chain
// height, block accounting and the raw hash-attempt counter the hashrate
// is sampled from.
type Counters struct {
	connected atomic.Bool
	height    atomic.Uint64
	accepted  atomic.Uint64
	rejected  atomic.Uint64
	hashes    atomic.Uint64

	mu         sync.Mutex
	lastSample time.Time
}

// New returns a zeroed counter set with the hashrate sampling clock
// initialized to now.
func New() *Counters {
	return &Counters{lastSample: time.Now()}
}

// SetConnected records whether the work-source connection is up.
func (c *Counters) SetConnected(up bool) { c.connected.Store(up) }

// Connected reports whether the work-source connection is up.
func (c *Counters) Connected() bool { return c.connected.Load() }

// SetHeight records the chain height of the most recent job.
func (c *Counters) SetHeight(h uint64) { c.height.Store(h) }

// Height returns the chain height of the most recent job.
func (c *Counters) Height() uint64 { return c.height.Load() }

// BlockAccepted increments the accepted-block counter.
func (c *Counters) BlockAccepted() { c.accepted.Add(1) }

// Accepted returns the number of accepted blocks.
func (c *Counters) Accepted() uint64 { return c.accepted.Load() }

// BlockRejected increments the rejected-block counter.
func (c *Counters) BlockRejected() { c.rejected.Add(1) }

// Rejected returns the number of rejected blocks.
func (c *Counters) Rejected() uint64 { return c.rejected.Load() }

// CountHash records one hash attempt. Called from every worker on every
// attempt, so it must stay a single atomic add.
func (c *Counters) CountHash() { c.hashes.Add(1) }

// Hashes returns the number of hash attempts since the last sample.
func (c *Counters) Hashes() uint64 { return c.hashes.Load() }

// SampleHashrate returns the hashes per second since the previous sample
// and resets the attempt counter, giving a rolling rate when called
// periodically.
func (c *Counters) SampleHashrate() float64 {
	c.mu.Lock()
	elapsed := time.Since(c.lastSample)
	c.lastSample = time.Now()
	c.mu.Unlock()

	count := c.hashes.Swap(0)
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed.Seconds()
}

// FormatHashrate renders a hashrate with the customary unit suffix.
func FormatHashrate(rate float64) string {
	units := []string{"H/s", "KH/s", "MH/s", "GH/s", "TH/s"}
	i := 0
	for rate >= 1000 && i < len(units)-1 {
		rate /= 1000
		i++
	}
	return fmt.Sprintf("%.2f %s", rate, units[i])
}
