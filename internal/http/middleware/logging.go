package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Logging escreve logs estruturados por requisição.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		// handlers usam log.Ctx(ctx) e herdam o request_id
		logger := log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context())))

		dur := time.Since(start)
		event := log.Info().Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", ww.Status()).Dur("duration", dur)

		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			event = event.Str("request_id", reqID)
		}

		event = event.Str("ip", realIPFromRequest(r)).Int("bytes", ww.BytesWritten())

		if ua := r.Header.Get("User-Agent"); ua != "" {
			event = event.Str("user_agent", ua)
		}

		event.Msg("http_request")
	})
}
