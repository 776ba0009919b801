// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	xglog "github.com/ManuGH/hblink/internal/log"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLog copies chi's request id into the context used by internal/log
// and writes one access log line per request.
func RequestLog() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := xglog.ContextWithRequestID(r.Context(), chimw.GetReqID(r.Context()))
			r = r.WithContext(ctx)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger := xglog.WithComponentFromContext(ctx, "api")
			logger.Debug().
				Str(xglog.FieldEvent, "http.request").
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request served")
		})
	}
}
