// Package metrics registers the proxy's prometheus counters, modeled on
// the donor repository's own prometheus registration in main.go/server.go
// (a namespaced registerer, collectors registered once at init).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uproxy",
		Name:      "requests_total",
		Help:      "Requests handled, labeled by outcome.",
	}, []string{"result"})

	upstreamConnectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "uproxy",
		Name:      "upstream_connects_total",
		Help:      "Successful upstream TCP connections opened.",
	})

	cacheEntriesEvictedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "uproxy",
		Name:      "cache_entries_evicted_total",
		Help:      "Cache entries removed by the sweeper.",
	})

	bytesForwardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "uproxy",
		Name:      "bytes_forwarded_total",
		Help:      "Response bytes forwarded to clients.",
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, upstreamConnectsTotal, cacheEntriesEvictedTotal, bytesForwardedTotal)
}

// RequestTotal increments the request outcome counter for result (one of
// hit, miss, bad_request, forbidden, not_found, method_not_allowed,
// version_not_supported, upstream_error).
func RequestTotal(result string) {
	requestsTotal.WithLabelValues(result).Inc()
}

// UpstreamConnect records a successful upstream dial.
func UpstreamConnect() {
	upstreamConnectsTotal.Inc()
}

// CacheEntriesEvicted records n entries removed during a sweep pass.
func CacheEntriesEvicted(n int) {
	cacheEntriesEvictedTotal.Add(float64(n))
}

// BytesForwarded records n response bytes forwarded to a client.
func BytesForwarded(n int64) {
	bytesForwardedTotal.Add(float64(n))
}
