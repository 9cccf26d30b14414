// Package audit provides the append-only decision log that accompanies a
// pipeline run. Every stage records what it decided and why; the final
// model carries the trail verbatim so a human can review and override.
package audit

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// EventType enumerates the pipeline stages that produce audit entries.
type EventType string

const (
	EventFileIngested    EventType = "file_ingested"
	EventSchemaInferred  EventType = "schema_inferred"
	EventProcessDetected EventType = "process_detected"
	EventDataNormalized  EventType = "data_normalized"
	EventCalculationsRun EventType = "calculations_run"
	EventExportGenerated EventType = "export_generated"
	EventErrorOccurred   EventType = "error_occurred"
	EventManualOverride  EventType = "manual_override"
)

// Entry is one audit record. Details hold structured context; ErrorMessage
// is set only for error_occurred entries.
type Entry struct {
	Timestamp    time.Time      `json:"timestamp"`
	EventType    EventType      `json:"event_type"`
	Description  string         `json:"description"`
	Details      map[string]any `json:"details,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// Logger accumulates entries for a single pipeline run. Entries are
// never removed or reordered. Safe for concurrent use; long-lived
// loggers (the export service's) see appends from many goroutines.
type Logger struct {
	mu      sync.Mutex
	entries []Entry
}

func NewLogger() *Logger {
	return &Logger{}
}

// Add appends an entry and mirrors it to slog.
func (l *Logger) Add(eventType EventType, description string, details map[string]any) {
	l.append(Entry{
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		Description: description,
		Details:     details,
	})
}

// AddError appends an error_occurred entry carrying the error message.
func (l *Logger) AddError(description string, details map[string]any, err error) {
	e := Entry{
		Timestamp:   time.Now().UTC(),
		EventType:   EventErrorOccurred,
		Description: description,
		Details:     details,
	}
	if err != nil {
		e.ErrorMessage = err.Error()
	}

	l.append(e)
}

func (l *Logger) append(e Entry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	if e.ErrorMessage != "" {
		slog.Error(e.Description, "event", string(e.EventType), "error", e.ErrorMessage)
	} else {
		slog.Info(e.Description, "event", string(e.EventType))
	}
}

// Entries returns a copy of the accumulated trail.
func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)

	return out
}

// sortedDetailKeys gives deterministic ordering when rendering details.
func sortedDetailKeys(details map[string]any) []string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
