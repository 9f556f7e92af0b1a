package xhttp

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sowlabs/transfer-office/pkg/logger"
	"github.com/valyala/fasthttp"
)

const slowThreshold = 500 * time.Millisecond

var skipPaths = []string{"/health", "/metrics", "/api/v1/health"}

type MiddlewareFunc func(next RequestHandler) RequestHandler

// accessLog is a dedicated zerolog writer for the request log so the
// access trail stays greppable separately from application logs.
var accessLog = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func TimeoutMiddleware(timeout time.Duration) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return fasthttp.TimeoutWithCodeHandler(next, timeout, StatusText(StatusRequestTimeout), StatusRequestTimeout)
	}
}

func CompressMiddleware(level int) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return fasthttp.CompressHandlerBrotliLevel(next, level, level)
	}
}

func RecoverMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		defer func() {
			if err := recover(); err != nil {
				ctx.Error(StatusText(StatusInternalServerError), StatusInternalServerError)
				logger.Error("[xhttp] panic recovered", "error", err)
			}
		}()
		next(ctx)
	}
}

func RequestLoggerMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		if shouldSkip(path) {
			next(ctx)
			return
		}

		start := time.Now()
		next(ctx)

		latency := time.Since(start)
		status := ctx.Response.StatusCode()

		var evt *zerolog.Event
		switch {
		case status >= 500:
			evt = accessLog.Error()
		case status >= 400 || latency > slowThreshold:
			evt = accessLog.Warn()
		default:
			evt = accessLog.Info()
		}

		evt.Int("status", status).
			Str("method", string(ctx.Method())).
			Str("path", path).
			Dur("latency", latency).
			Int("bytes_in", len(ctx.PostBody())).
			Int("bytes_out", len(ctx.Response.Body())).
			Str("ip", ctx.RemoteIP().String()).
			Str("request_id", requestID(ctx)).
			Msg("http_request")
	}
}

func shouldSkip(p string) bool {
	for _, sp := range skipPaths {
		if strings.HasPrefix(p, sp) {
			return true
		}
	}
	return false
}

func requestID(ctx *fasthttp.RequestCtx) string {
	if v := ctx.Request.Header.Peek("X-Request-Id"); len(v) > 0 {
		return string(v)
	}
	return ""
}
