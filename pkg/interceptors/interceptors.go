// Package interceptors holds the Connect interceptors shared by every RPC
// handler: logging, tracing, metrics and rate limiting.
package interceptors

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/FACorreiaa/fixture-report/pkg/interceptors"

func codeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return connect.CodeOf(err).String()
}

// NewLoggingInterceptor logs every unary call with its outcome.
func NewLoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				slog.String("procedure", req.Spec().Procedure),
				slog.String("code", codeOf(err)),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
				if connect.CodeOf(err) == connect.CodeInternal {
					logger.ErrorContext(ctx, "rpc failed", attrs...)
					return resp, err
				}
				logger.WarnContext(ctx, "rpc rejected", attrs...)
				return resp, err
			}
			logger.DebugContext(ctx, "rpc handled", attrs...)
			return resp, err
		}
	}
}

// NewTracingInterceptor opens a span per call.
func NewTracingInterceptor() connect.UnaryInterceptorFunc {
	tracer := otel.Tracer(tracerName)
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			ctx, span := tracer.Start(ctx, req.Spec().Procedure)
			defer span.End()

			resp, err := next(ctx, req)
			span.SetAttributes(attribute.String("rpc.code", codeOf(err)))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return resp, err
		}
	}
}

// Metrics are the RPC collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers RPC collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rpc_requests_total",
			Help: "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rpc_request_duration_seconds",
			Help:    "RPC latency by procedure.",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure"}),
	}
}

// Requests returns the call counter for a procedure and code.
func (m *Metrics) Requests(procedure, code string) prometheus.Counter {
	return m.requests.WithLabelValues(procedure, code)
}

// Interceptor records every call.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			procedure := req.Spec().Procedure
			m.requests.WithLabelValues(procedure, codeOf(err)).Inc()
			m.duration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}

var errRateLimited = errors.New("rate limit exceeded")

// NewRateLimitInterceptor rejects calls beyond perSecond with bursts up to
// burst. A non-positive perSecond disables limiting.
func NewRateLimitInterceptor(perSecond, burst int) connect.UnaryInterceptorFunc {
	if perSecond <= 0 {
		return func(next connect.UnaryFunc) connect.UnaryFunc { return next }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if !limiter.Allow() {
				return nil, connect.NewError(connect.CodeResourceExhausted, errRateLimited)
			}
			return next(ctx, req)
		}
	}
}
