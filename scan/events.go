package scan

import (
	"time"

	"github.com/petal-labs/readyscan/core"
)

// EventKind identifies a scan lifecycle event.
type EventKind string

const (
	EventScanStarted      EventKind = "scan.started"
	EventProviderStarted  EventKind = "provider.started"
	EventProviderFinished EventKind = "provider.finished"
	EventProviderFailed   EventKind = "provider.failed"
	EventScanFinished     EventKind = "scan.finished"
)

// Event is one scan lifecycle notification. Fields beyond Kind, ScanID,
// Target, and Time are set only where they apply.
type Event struct {
	Kind     EventKind
	ScanID   string
	Target   string
	Provider string
	Time     time.Time
	Elapsed  time.Duration
	Err      error
	Result   *core.ScanResult
	Findings int
}

// Emitter receives scan events. Emitters must be fast, must not panic,
// and must be safe for concurrent use: provider lifecycle events are
// emitted from the per-provider worker goroutines.
type Emitter func(Event)

// MultiEmitter fans one event out to several emitters in order.
func MultiEmitter(emitters ...Emitter) Emitter {
	return func(e Event) {
		for _, emit := range emitters {
			if emit != nil {
				emit(e)
			}
		}
	}
}
