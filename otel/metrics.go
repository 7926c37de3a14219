package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/petal-labs/readyscan/scan"
)

// MetricsHandler translates scan events into OpenTelemetry metrics:
// counters for scans and provider failures, histograms for durations and
// the readiness score.
type MetricsHandler struct {
	scans            metric.Int64Counter
	providerFailures metric.Int64Counter
	providerDuration metric.Float64Histogram
	scanDuration     metric.Float64Histogram
	readinessScore   metric.Int64Histogram
}

// NewMetricsHandler creates a MetricsHandler with instruments bound to the
// given meter.
func NewMetricsHandler(meter metric.Meter) (*MetricsHandler, error) {
	scans, err := meter.Int64Counter("readyscan.scans",
		metric.WithDescription("Number of completed scans"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("readyscan.provider.failures",
		metric.WithDescription("Number of provider failures"),
	)
	if err != nil {
		return nil, err
	}

	providerDur, err := meter.Float64Histogram("readyscan.provider.duration",
		metric.WithDescription("Duration of one provider analyzing one target in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	scanDur, err := meter.Float64Histogram("readyscan.scan.duration",
		metric.WithDescription("Duration of a full scan in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	score, err := meter.Int64Histogram("readyscan.scan.score",
		metric.WithDescription("Readiness score distribution"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsHandler{
		scans:            scans,
		providerFailures: failures,
		providerDuration: providerDur,
		scanDuration:     scanDur,
		readinessScore:   score,
	}, nil
}

// Handle processes a scan event and records the appropriate metrics.
// It satisfies scan.Emitter.
func (h *MetricsHandler) Handle(e scan.Event) {
	ctx := context.Background()
	switch e.Kind {
	case scan.EventProviderFinished:
		h.providerDuration.Record(ctx, e.Elapsed.Seconds(), metric.WithAttributes(
			attribute.String("provider", e.Provider),
		))
	case scan.EventProviderFailed:
		h.providerFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", e.Provider),
		))
	case scan.EventScanFinished:
		attrs := metric.WithAttributes(attribute.String("target", e.Target))
		h.scans.Add(ctx, 1, attrs)
		h.scanDuration.Record(ctx, e.Elapsed.Seconds(), attrs)
		if e.Result != nil {
			h.readinessScore.Record(ctx, int64(e.Result.ReadinessScore), attrs)
		}
	}
}
