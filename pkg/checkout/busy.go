package checkout

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var checkoutInFlightOps = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "storefront_checkout_inflight_operations",
	Help: "Number of checkout backend operations currently in flight",
})

// busyState is a reference-counted busy indicator. Unlike a single boolean
// flag, overlapping operations cannot clear each other's state: the session
// is busy while any operation is in flight.
type busyState struct {
	mu    sync.Mutex
	count int
}

func (b *busyState) begin() {
	b.mu.Lock()
	b.count++
	b.mu.Unlock()
	checkoutInFlightOps.Inc()
}

func (b *busyState) end() {
	b.mu.Lock()
	if b.count > 0 {
		b.count--
	}
	b.mu.Unlock()
	checkoutInFlightOps.Dec()
}

func (b *busyState) busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count > 0
}
