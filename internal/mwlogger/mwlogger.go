// Package mwlogger attaches a request- or task-scoped logger to the context
package mwlogger

import (
	"context"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/helpers"
	"github.com/wb-go/wbf/zlog"
)

const RequestIDHeader = "X-Request-Id"

type loggerWithRequestID struct{}

// NewMWLogger - обёртка для логирования запросов с присвоением UUID каждому запросу и пробросу логгера в контекст запроса.
// ID запроса возвращается клиенту в том же заголовке, чтобы по нему можно было найти логи задачи.
func NewMWLogger(next *ginext.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = helpers.CreateUUID()
		}
		w.Header().Set(RequestIDHeader, reqID)

		logger := zlog.Logger.With().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
	})
}

// WithLogger кладет логгер в контекст вне HTTP: воркер и CLI логируют по задаче/файлу
func WithLogger(ctx context.Context, l zlog.Zerolog) context.Context {
	return context.WithValue(ctx, loggerWithRequestID{}, l)
}

// LoggerFromContext extracts logger from context - used in service-layer, worker and engine glue
func LoggerFromContext(ctx context.Context) zlog.Zerolog {
	if l, ok := ctx.Value(loggerWithRequestID{}).(zlog.Zerolog); ok {
		return l
	}
	return zlog.Logger
}
