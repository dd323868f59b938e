// Package sweeper implements §4.7: a single long-lived task that
// periodically purges expired cache entries.
package sweeper

import (
	"time"

	"github.com/paulbellamy/ratecounter"

	"github.com/mason-ferrell/uproxy/internal/log"
	"github.com/mason-ferrell/uproxy/internal/metrics"
)

// Store is the subset of cache.Store the sweeper depends on.
type Store interface {
	Sweep(ttl time.Duration) (scanned, evicted int)
}

// Run executes sweep passes against ttl until stop is closed, waiting period
// between passes. Per SPEC_FULL.md §1a, period is the config file's "sweep
// tick override" (Bootstrap.SweepInterval); callers fall back to ttl itself
// when no override was given. Per §6/§4.7, a ttl of 0 means "one pass then
// stop" — the proxy's caching is disabled entirely and there is nothing
// more to sweep.
func Run(store Store, ttl, period time.Duration, stop <-chan struct{}) {
	rate := ratecounter.NewRateCounter(time.Second)
	clog := log.NewHelper(log.GetLogger())

	for {
		scanned, evicted := store.Sweep(ttl)
		rate.Incr(int64(evicted))
		metrics.CacheEntriesEvicted(evicted)
		clog.Debugf("sweeper: pass scanned=%d evicted=%d rate=%d/s", scanned, evicted, rate.Rate())

		if ttl <= 0 {
			return
		}

		select {
		case <-stop:
			return
		case <-time.After(period):
		}
	}
}
