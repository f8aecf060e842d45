// Package tracing настраивает OpenTelemetry для процесса.
package tracing

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/cfg"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/DRSN-tech/cartwhisper"

// Init устанавливает глобальный TracerProvider. Без экспортёра спаны создаются, но никуда не уходят.
func Init(ctx context.Context, c *cfg.TracingCfg, log logger.Logger) (func(context.Context) error, error) {
	exporter, err := buildExporter(ctx, c)
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", c.ServiceName),
	)

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if exporter != nil {
		log.Infof("tracing initialized: exporter=%s service=%s", c.Exporter, c.ServiceName)
	}

	return tp.Shutdown, nil
}

func buildExporter(ctx context.Context, c *cfg.TracingCfg) (sdktrace.SpanExporter, error) {
	switch c.Exporter {
	case "":
		return nil, nil
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	case "otlp":
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(c.Endpoint),
			otlptracehttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", c.Exporter)
	}
}

// Tracer возвращает трейсер приложения.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Start открывает спан с именем name.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// End завершает спан, отмечая ошибку, если она есть.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
