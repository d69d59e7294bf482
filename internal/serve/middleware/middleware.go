package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
	"github.com/stellar/go-stellar-sdk/support/http/mutil"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/customer-intake-backend/internal/monitor"
	"github.com/stellar/customer-intake-backend/internal/serve/httperror"
	"github.com/stellar/customer-intake-backend/internal/utils"
)

// URL parameters copied into the request log when a route declares them.
var loggedURLParams = map[string]string{
	"sessionID": "session_id",
	"id":        "customer_id",
}

// RecoverHandler turns a handler panic into a reported 500. http.ErrAbortHandler is re-raised so the server can drop
// the connection.
func RecoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", r)
			}
			if errors.Is(err, http.ErrAbortHandler) {
				panic(err)
			}

			httperror.InternalError(req.Context(), "", err, nil).Render(rw)
		}()

		next.ServeHTTP(rw, req)
	})
}

// ObserveRequests logs the start and end of every request and records its duration in the monitor service. The
// request logger it stores in the context carries the method, path and request id.
func ObserveRequests(monitorService monitor.MonitorServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			l := log.Ctx(ctx).WithFields(log.F{
				"method": req.Method,
				"path":   req.URL.String(),
				"req":    chimiddleware.GetReqID(ctx),
			})
			req = req.WithContext(log.Set(ctx, l))

			l.WithFields(log.F{
				"subsys":    "http",
				"ip":        req.RemoteAddr,
				"useragent": req.Header.Get("User-Agent"),
			}).Info("starting request")

			mw := mutil.WrapWriter(rw)
			started := time.Now()
			next.ServeHTTP(mw, req)
			duration := time.Since(started)

			status := mw.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logRequestEnd(req, status, mw.BytesWritten(), duration)

			labels := monitor.HTTPRequestLabels{
				Status: strconv.Itoa(status),
				Route:  utils.GetRoutePattern(req),
				Method: req.Method,
			}
			if err := monitorService.MonitorHTTPRequestDuration(duration, labels); err != nil {
				log.Ctx(req.Context()).Errorf("Error trying to monitor request time: %s", err)
			}
		})
	}
}

func logRequestEnd(req *http.Request, status, bytes int, duration time.Duration) {
	l := log.Ctx(req.Context()).WithFields(log.F{
		"subsys":   "http",
		"status":   status,
		"bytes":    bytes,
		"duration": duration,
	})
	if rctx := chi.RouteContext(req.Context()); rctx != nil {
		l = l.WithField("route", rctx.RoutePattern())
		for param, field := range loggedURLParams {
			if v := rctx.URLParam(param); v != "" {
				l = l.WithField(field, v)
			}
		}
	}

	if status >= http.StatusInternalServerError {
		l.Error("finished request")
		return
	}
	l.Info("finished request")
}

func CorsMiddleware(corsAllowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedHeaders: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
	}).Handler
}

// MaxBodySize limits the size of request bodies. Handlers see an error when reading past maxBytes.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			if req.Body != nil {
				req.Body = http.MaxBytesReader(rw, req.Body, maxBytes)
			}
			next.ServeHTTP(rw, req)
		})
	}
}

// RateLimitByIP allows requestLimit requests per window for each client IP. A non-positive limit disables it.
func RateLimitByIP(requestLimit int, window time.Duration) func(http.Handler) http.Handler {
	if requestLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		requestLimit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(rw http.ResponseWriter, req *http.Request) {
			httperror.TooManyRequests("").Render(rw)
		}),
	)
}
