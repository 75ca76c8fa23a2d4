// Package server provides HTTP routing, middleware, and the server lifecycle for the lineup API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /health"), so the
// matched pattern is available to middleware as [http.Request.Pattern] after dispatch.
//
// # Middleware
//
//   - [RequestID] assigns or propagates X-Request-ID
//   - [Logging] logs requests with charmbracelet/log and records Prometheus latency per route
//   - [Recover] converts panics into JSON 500s
//   - [CORS] wraps go-chi/cors
//   - [RateLimit] wraps go-chi/httprate keyed by client IP
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Lifecycle
//
// [New] builds an [http.Server] and [Run] serves it until the context is cancelled.
package server
