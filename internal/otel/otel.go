package otel

import (
	"context"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// ServiceName identifies this process in traces.
const ServiceName = "food-delivery"

const defaultJaegerEndpoint = "http://jaeger:14268/api/traces"

type OtelController struct {
	traceProvider *sdktrace.TracerProvider
}

// MustInitOtel installs a tracer provider exporting to the Jaeger collector at
// tracing.jaeger.endpoint, sampling tracing.sample_ratio of new traces.
func MustInitOtel() *OtelController {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(mustNewJaegerExporter()),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio()))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(ServiceName),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &OtelController{
		traceProvider: tp,
	}
}

func mustNewJaegerExporter() *jaeger.Exporter {
	endpoint := viper.GetString("tracing.jaeger.endpoint")
	if endpoint == "" {
		endpoint = defaultJaegerEndpoint
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		panic(err)
	}

	return exp
}

func sampleRatio() float64 {
	if !viper.IsSet("tracing.sample_ratio") {
		return 1
	}

	return viper.GetFloat64("tracing.sample_ratio")
}

// Shutdown flushes pending spans.
func (o *OtelController) Shutdown(ctx context.Context) error {
	return o.traceProvider.Shutdown(ctx)
}
