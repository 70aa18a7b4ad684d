package xhttp

import (
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/nimasrn/property-marketplace/pkg/logger"
	"github.com/valyala/fasthttp"
)

const slowThreshold = 500 * time.Millisecond

var skipLogPaths = []string{"/health", "/metrics"}

type MiddlewareFunc func(next RequestHandler) RequestHandler
type RequestCtx = fasthttp.RequestCtx
type RequestHandler = fasthttp.RequestHandler

// IsStreaming reports whether the request asks for a server-sent event stream.
// Such responses are written after the handler returns, so buffering
// middlewares must stay out of their way.
func IsStreaming(ctx *RequestCtx) bool {
	if strings.HasSuffix(string(ctx.Path()), "/stream") {
		return true
	}
	return strings.Contains(string(ctx.Request.Header.Peek("Accept")), "text/event-stream")
}

func TimeoutMiddleware(timeout time.Duration) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		wrapped := fasthttp.TimeoutWithCodeHandler(next, timeout, `{"error":"`+StatusText(StatusRequestTimeout)+`"}`, StatusRequestTimeout)
		return func(ctx *RequestCtx) {
			if IsStreaming(ctx) {
				next(ctx)
				return
			}
			wrapped(ctx)
		}
	}
}

func CompressMiddleware(level int) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		wrapped := fasthttp.CompressHandlerBrotliLevel(next, level, level)
		return func(ctx *RequestCtx) {
			if IsStreaming(ctx) {
				next(ctx)
				return
			}
			wrapped(ctx)
		}
	}
}

// CORSMiddleware answers preflight requests and decorates every response with
// the allowed origin.
func CORSMiddleware(allowOrigin string) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return func(ctx *RequestCtx) {
			h := &ctx.Response.Header
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			if ctx.IsOptions() {
				ctx.SetStatusCode(StatusNoContent)
				return
			}
			next(ctx)
		}
	}
}

func RecoverMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		defer func() {
			if err := recover(); err != nil {
				writeErrorBody(ctx, StatusInternalServerError)
				logger.Error("[xhttp] panic recovered", "error", err, "path", string(ctx.Path()))
			}
		}()
		next(ctx)
	}
}

// ObserveFunc receives one call per finished request.
type ObserveFunc func(method, route string, status int, latency time.Duration)

// MetricsMiddleware reports each request to observe, keyed by the matched
// route pattern rather than the raw path.
func MetricsMiddleware(observe ObserveFunc) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return func(ctx *RequestCtx) {
			start := time.Now()
			next(ctx)
			route, _ := ctx.UserValue(router.MatchedRoutePathParam).(string)
			if route == "" {
				route = "unmatched"
			}
			observe(string(ctx.Method()), route, ctx.Response.StatusCode(), time.Since(start))
		}
	}
}

func RequestLoggerMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		path := string(ctx.Path())
		if shouldSkip(path) {
			next(ctx)
			return
		}

		start := time.Now()
		next(ctx)

		latency := time.Since(start)
		status := ctx.Response.StatusCode()
		// Body() would drain a body stream, which for an event stream only
		// ends when the subscriber goes away.
		bytesOut := -1
		if !ctx.Response.IsBodyStream() {
			bytesOut = len(ctx.Response.Body())
		}
		fields := []any{
			"status", status,
			"method", string(ctx.Method()),
			"path", path,
			"latency", latency.String(),
			"bytes_in", len(ctx.PostBody()),
			"bytes_out", bytesOut,
			"ip", ctx.RemoteIP().String(),
			"ua", string(ctx.Request.Header.UserAgent()),
			"request_id", requestID(ctx),
		}

		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400 || latency > slowThreshold:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	}
}

func shouldSkip(p string) bool {
	for _, sp := range skipLogPaths {
		if strings.HasPrefix(p, sp) {
			return true
		}
	}
	return false
}

func requestID(ctx *RequestCtx) string {
	if v := ctx.Request.Header.Peek("X-Request-Id"); len(v) > 0 {
		return string(v)
	}
	return strconv.FormatUint(ctx.ID(), 10)
}

// APIMiddlewares is the chain the API server runs, outermost first.
func APIMiddlewares(observe ObserveFunc, allowOrigin string) []MiddlewareFunc {
	return []MiddlewareFunc{
		RecoverMiddleware,
		MetricsMiddleware(observe),
		RequestLoggerMiddleware,
		CORSMiddleware(allowOrigin),
		CompressMiddleware(6),
		TimeoutMiddleware(RequestTimeout()),
	}
}
