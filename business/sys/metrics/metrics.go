// Package metrics constructs the metrics the application will track.
package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "blocksim"

// Set of counters updated by the web middleware.
var (
	requests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "web",
		Name:      "requests_total",
		Help:      "Total number of requests handled.",
	})

	errors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "web",
		Name:      "errors_total",
		Help:      "Total number of requests that returned an error.",
	})

	panics = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "web",
		Name:      "panics_total",
		Help:      "Total number of panics recovered.",
	})

	goroutines = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "web",
		Name:      "goroutines",
		Help:      "Number of goroutines that currently exist.",
	}, func() float64 { return float64(runtime.NumGoroutine()) })
)

// AddRequests increments the request count by 1.
func AddRequests() {
	requests.Inc()
}

// AddErrors increments the errors count by 1.
func AddErrors() {
	errors.Inc()
}

// AddPanics increments the panics count by 1.
func AddPanics() {
	panics.Inc()
}

// Register adds the web counters and a collector for the chain to the
// registerer.
func Register(reg prometheus.Registerer, chain ChainReader) error {
	collectors := []prometheus.Collector{
		requests,
		errors,
		panics,
		goroutines,
		NewChainCollector(chain),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}
