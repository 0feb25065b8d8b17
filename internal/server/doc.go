// Package server serves the queue protocol as JSON over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] implements it over
// a gorilla/mux router; [Middleware] wraps each route in reverse order (last added executes first), so
// middleware sees the matched route template. [NewRouter] assembles the standard stack: panic recovery,
// request logging, Prometheus metrics and a token bucket rate limiter.
//
// # Handlers
//
// A [Handler] lists its [Route] values and the router registers them. [QueueHandler] maps every queue
// command onto an endpoint. Reads are served from the last published snapshot without touching the
// command loop; writes go through [tasks.QueueEditor].
//
// # Errors
//
// Failed requests get a JSON body with a stable error kind (out_of_range, no_such_id, not_found,
// invalid_input and so on) and a matching status code.
//
// # Change notification
//
// GET /queue/idle?version=V blocks until the queue version differs from V. [Broadcaster] is the queue
// listener that wakes those requests.
package server
