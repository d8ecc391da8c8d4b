package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/memberlink/pkg/config"
)

const defaultServiceName = "memberlink"

// New returns the tracer used across services. Without an endpoint it is a
// no-op tracer and nothing is exported.
func New(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) (trace.Tracer, error) {
	name := cfg.Tracing.ServiceName
	if name == "" {
		name = defaultServiceName
	}
	if cfg.Tracing.Endpoint == "" {
		log.Infow("tracing_disabled")
		return noop.NewTracerProvider().Tracer(name), nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Tracing.Endpoint)}
	if cfg.Tracing.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(name),
			semconv.DeploymentEnvironment(string(cfg.Env)),
		)),
	)
	otel.SetTracerProvider(tp)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := tp.Shutdown(ctx); err != nil {
				log.Warnw("tracer_shutdown_failed", "err", err)
			}
			return nil
		},
	})
	log.Infow("tracing_enabled", "endpoint", cfg.Tracing.Endpoint, "service", name)
	return tp.Tracer(name), nil
}

var Module = fx.Options(
	fx.Provide(New),
)
