package engine

import (
	"log/slog"
	"time"
)

// EventType names a lifecycle phase boundary of one Execute/Explain call,
// following the teacher's engine.EventType lineage.
type EventType string

const (
	EventLexStart   EventType = "lex_start"
	EventLexEnd     EventType = "lex_end"
	EventParseStart EventType = "parse_start"
	EventParseEnd   EventType = "parse_end"
	EventPlanStart  EventType = "plan_start"
	EventPlanEnd    EventType = "plan_end"
	EventExecStart  EventType = "exec_start"
	EventExecEnd    EventType = "exec_end"
)

// Event is one lifecycle notification. Explain calls emit every phase up
// through EventPlanEnd and Introspect calls emit only EventPlanStart and
// EventPlanEnd; neither emits an exec event, since they perform no
// read/write against table state.
type Event struct {
	Type      EventType
	TxID      string
	Timestamp time.Time
	Data      interface{}
}

// Observer receives lifecycle events from an Engine.
type Observer interface {
	OnEvent(event Event)
}

// LoggingObserver adapts the Observer interface to structured logging.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver wraps logger as an Observer.
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

func (lo *LoggingObserver) OnEvent(event Event) {
	lo.logger.Info("query_lifecycle",
		"event", string(event.Type),
		"tx_id", event.TxID,
		"timestamp", event.Timestamp,
		"data", event.Data,
	)
}
