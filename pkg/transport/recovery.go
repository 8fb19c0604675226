package transport

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/rhuss/promptstream/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server error responses. The server continues to
// accept new requests after a panic is recovered. Once part of a stream has
// been written, the connection is left to close without an error body.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newResponseRecorder(w)
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				slog.Error("panic in handler",
					"request_id", RequestIDFromContext(r.Context()),
					"panic", p,
					"stack", string(debug.Stack()),
				)
				if !rec.wroteHeader {
					WriteError(rec, api.NewServerError(fmt.Sprintf("internal server error: %v", p)))
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
