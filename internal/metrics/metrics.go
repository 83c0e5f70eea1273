package metrics

import "time"

// Recorder receives counters and latencies from the payment flow.
// Label keys used across the service: "operation", "result", "method".
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
