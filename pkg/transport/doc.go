// Package transport provides the HTTP middleware chain and error envelope
// shared by the promptstream server.
//
// # Middleware
//
// Middleware wraps an http.Handler with cross-cutting behavior. Chain(a, b, c)
// produces a(b(c(handler))), so the first middleware is the outermost. The
// built-in set covers panic recovery, request ID assignment (X-Request-ID),
// structured access logging via log/slog, and the Dynamic directive that
// keeps completion responses out of every cache.
//
// # Errors
//
// Errors cross package boundaries as *api.APIError and are written as
// {"error": {...}} JSON with a status derived from the error type.
//
// # In-flight streams
//
// InFlightRegistry tracks the cancel functions of streams that are still
// being written so that shutdown can stop them once its grace period ends.
package transport
