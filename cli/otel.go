package cli

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	rsotel "github.com/petal-labs/readyscan/otel"
	"github.com/petal-labs/readyscan/scan"
)

// setupTelemetry wires scan events into OpenTelemetry. With no endpoint it
// returns a nil emitter and a no-op shutdown. Traces export over OTLP/HTTP;
// metrics are recorded against the local SDK so handlers share one code
// path whether or not an endpoint is configured.
func setupTelemetry(ctx context.Context, endpoint string) (scan.Emitter, func(context.Context), error) {
	noop := func(context.Context) {}
	if endpoint == "" {
		return nil, noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, noop, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	mp := sdkmetric.NewMeterProvider()

	tracing := rsotel.NewTracingHandler(tp.Tracer("readyscan"))
	metrics, err := rsotel.NewMetricsHandler(mp.Meter("readyscan"))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, noop, fmt.Errorf("creating metrics handler: %w", err)
	}

	emitter := scan.MultiEmitter(tracing.Handle, metrics.Handle)
	shutdown := func(ctx context.Context) {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
	}
	return emitter, shutdown, nil
}
