// Package otel provides OpenTelemetry integration for scan events.
package otel

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/readyscan/scan"
)

// TracingHandler translates scan events into OpenTelemetry spans: one root
// span per scan and a child span per provider. It maintains maps of active
// spans, creating and ending them based on event kind.
type TracingHandler struct {
	tracer trace.Tracer

	mu            sync.RWMutex
	scanSpans     map[string]trace.Span      // scanID -> span
	scanCtxs      map[string]context.Context // scanID -> context (for child spans)
	providerSpans map[string]trace.Span      // scanID:provider -> span
}

// NewTracingHandler creates a TracingHandler that uses the given tracer to
// create spans from scan events.
func NewTracingHandler(tracer trace.Tracer) *TracingHandler {
	return &TracingHandler{
		tracer:        tracer,
		scanSpans:     make(map[string]trace.Span),
		scanCtxs:      make(map[string]context.Context),
		providerSpans: make(map[string]trace.Span),
	}
}

// Handle processes a scan event and creates or ends spans accordingly.
// It satisfies scan.Emitter.
func (h *TracingHandler) Handle(e scan.Event) {
	switch e.Kind {
	case scan.EventScanStarted:
		h.handleScanStarted(e)
	case scan.EventProviderStarted:
		h.handleProviderStarted(e)
	case scan.EventProviderFinished:
		h.handleProviderFinished(e)
	case scan.EventProviderFailed:
		h.handleProviderFailed(e)
	case scan.EventScanFinished:
		h.handleScanFinished(e)
	}
}

func (h *TracingHandler) handleScanStarted(e scan.Event) {
	ctx, span := h.tracer.Start(context.Background(), "scan:"+e.Target,
		trace.WithAttributes(
			attribute.String("readyscan.scan_id", e.ScanID),
			attribute.String("readyscan.target", e.Target),
		),
		trace.WithTimestamp(e.Time),
	)

	h.mu.Lock()
	h.scanSpans[e.ScanID] = span
	h.scanCtxs[e.ScanID] = ctx
	h.mu.Unlock()
}

func (h *TracingHandler) handleProviderStarted(e scan.Event) {
	h.mu.RLock()
	parentCtx, ok := h.scanCtxs[e.ScanID]
	h.mu.RUnlock()
	if !ok {
		parentCtx = context.Background()
	}

	_, span := h.tracer.Start(parentCtx, "provider:"+e.Provider,
		trace.WithAttributes(
			attribute.String("readyscan.scan_id", e.ScanID),
			attribute.String("readyscan.provider", e.Provider),
		),
		trace.WithTimestamp(e.Time),
	)

	h.mu.Lock()
	h.providerSpans[e.ScanID+":"+e.Provider] = span
	h.mu.Unlock()
}

func (h *TracingHandler) handleProviderFinished(e scan.Event) {
	span, ok := h.takeProviderSpan(e)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int("readyscan.findings", e.Findings))
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(e.Time))
}

func (h *TracingHandler) handleProviderFailed(e scan.Event) {
	span, ok := h.takeProviderSpan(e)
	if !ok {
		return
	}
	errMsg := "unknown error"
	if e.Err != nil {
		errMsg = e.Err.Error()
	}
	span.SetStatus(codes.Error, errMsg)
	span.RecordError(errors.New(errMsg), trace.WithTimestamp(e.Time))
	span.End(trace.WithTimestamp(e.Time))
}

func (h *TracingHandler) handleScanFinished(e scan.Event) {
	h.mu.Lock()
	span, ok := h.scanSpans[e.ScanID]
	if ok {
		delete(h.scanSpans, e.ScanID)
		delete(h.scanCtxs, e.ScanID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	if e.Result != nil {
		span.SetAttributes(
			attribute.Int("readyscan.score", e.Result.ReadinessScore),
			attribute.Bool("readyscan.production_ready", e.Result.ProductionReady),
			attribute.Int("readyscan.findings", len(e.Result.Findings)),
			attribute.Int("readyscan.suppressed", len(e.Result.Suppressed)),
		)
	}
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(e.Time))
}

func (h *TracingHandler) takeProviderSpan(e scan.Event) (trace.Span, bool) {
	key := e.ScanID + ":" + e.Provider
	h.mu.Lock()
	defer h.mu.Unlock()
	span, ok := h.providerSpans[key]
	if ok {
		delete(h.providerSpans, key)
	}
	return span, ok
}

// ActiveScanSpanContext returns the span context of an in-flight scan, or
// an invalid context when none is active.
func (h *TracingHandler) ActiveScanSpanContext(scanID string) trace.SpanContext {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if span, ok := h.scanSpans[scanID]; ok {
		return span.SpanContext()
	}
	return trace.SpanContext{}
}
