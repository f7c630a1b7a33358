package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const exporterTimeout = 3 * time.Second

const (
	protocolNone = ""
	protocolGrpc = "grpc"
	protocolHttp = "http"
)

// protocol picks grpc over http when both endpoints are set.
func (c OtlpConnConfig) protocol() string {
	switch {
	case c.GrpcEndpoint != "":
		return protocolGrpc
	case c.HttpEndpoint != "":
		return protocolHttp
	}
	return protocolNone
}

func (c OtlpConnConfig) endpoint() string {
	if c.protocol() == protocolGrpc {
		return c.GrpcEndpoint
	}
	return c.HttpEndpoint
}

func logExporter(signal string, c OtlpConnConfig) {
	slog.Info(
		"otlp exporter initialized",
		"signal", signal,
		"protocol", c.protocol(),
		"endpoint", c.endpoint(),
		"headers", len(c.Headers) > 0,
	)
}

// newTraceProvider records spans in-process only when no trace endpoint is
// configured.
func newTraceProvider(ctx context.Context, r *resource.Resource, config Config) (*trace.TracerProvider, error) {
	opts := []trace.TracerProviderOption{
		trace.WithResource(r),
		trace.WithSampler(config.sampler()),
	}

	conn := config.Otlp.Traces
	if conn.protocol() != protocolNone {
		ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
		defer cancel()

		var exporter trace.SpanExporter
		var err error
		if conn.protocol() == protocolGrpc {
			exporter, err = otlptracegrpc.New(
				ctx,
				otlptracegrpc.WithEndpointURL(conn.GrpcEndpoint),
				otlptracegrpc.WithHeaders(conn.Headers),
			)
		} else {
			exporter, err = otlptracehttp.New(
				ctx,
				otlptracehttp.WithEndpointURL(conn.HttpEndpoint),
				otlptracehttp.WithHeaders(conn.Headers),
			)
		}
		if err != nil {
			return nil, err
		}
		logExporter("traces", conn)
		opts = append(opts, trace.WithBatcher(exporter))
	}

	return trace.NewTracerProvider(opts...), nil
}

// newMetricProvider aggregates metrics in-process only when no metric
// endpoint is configured.
func newMetricProvider(ctx context.Context, r *resource.Resource, config Config) (*metric.MeterProvider, error) {
	opts := []metric.Option{metric.WithResource(r)}

	conn := config.Otlp.Metrics
	if conn.protocol() != protocolNone {
		ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
		defer cancel()

		var exporter metric.Exporter
		var err error
		if conn.protocol() == protocolGrpc {
			exporter, err = otlpmetricgrpc.New(
				ctx,
				otlpmetricgrpc.WithEndpointURL(conn.GrpcEndpoint),
				otlpmetricgrpc.WithHeaders(conn.Headers),
			)
		} else {
			exporter, err = otlpmetrichttp.New(
				ctx,
				otlpmetrichttp.WithEndpointURL(conn.HttpEndpoint),
				otlpmetrichttp.WithHeaders(conn.Headers),
			)
		}
		if err != nil {
			return nil, err
		}
		logExporter("metrics", conn)
		opts = append(opts, metric.WithReader(
			metric.NewPeriodicReader(exporter, metric.WithInterval(config.metricInterval())),
		))
	}

	return metric.NewMeterProvider(opts...), nil
}
