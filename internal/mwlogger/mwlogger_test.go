package mwlogger

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"
)

func TestNewMWLogger_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := ginext.New("")

	engine.GET("/ping", func(c *ginext.Context) {
		logger := LoggerFromContext(c.Request.Context())
		logger.Info().Msg("inside")
		c.Status(http.StatusOK)
	})

	h := NewMWLogger(engine)

	tests := []struct {
		name   string
		header string
	}{
		{"client id is kept", "req-42"},
		{"id is generated", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			got := w.Header().Get(RequestIDHeader)
			require.NotEmpty(t, got)
			if tt.header != "" {
				require.Equal(t, tt.header, got)
			}
		})
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).With().Str("job", "abc").Logger()

	ctx := WithLogger(context.Background(), l)
	logger := LoggerFromContext(ctx)
	logger.Info().Msg("hello")

	require.Contains(t, buf.String(), `"job":"abc"`)
	require.Contains(t, buf.String(), `"message":"hello"`)
}

func TestLoggerFromContext_Default(t *testing.T) {
	require.NotPanics(t, func() {
		logger := LoggerFromContext(context.Background())
		logger.Debug().Msg("fallback")
	})
}
