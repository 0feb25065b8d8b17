// Package metrics defines the Prometheus metrics exported on /metrics.
//
// Queue gauges are driven by a [QueueObserver] subscribed to the queue; snapshot persistence is
// counted by wrapping the state store with [InstrumentStateStore]. HTTP metrics are recorded by the
// server's middleware.
package metrics
