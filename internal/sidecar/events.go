package sidecar

// EventType names the four observable events both supervisor modes emit
// (§4.4.3). Every terminal code path emits exactly one of Exit or
// Cancelled per agent_id — never both, never neither.
type EventType string

const (
	EventMessage   EventType = "sidecar-message"
	EventExit      EventType = "agent-exit"
	EventCancelled EventType = "agent-cancelled"
	EventStderr    EventType = "stderr"
)

// Event is one observable notification addressed to a caller-chosen
// agent_id. For pool mode, agent_id is the request_id a reader routed the
// line by, which is always the agent_id the request was sent under.
type Event struct {
	Type    EventType
	AgentID string
	Line    string
	Success bool
}

// Sink receives events as they happen. Implementations must not block the
// caller for long — Publish runs on the reader goroutine's hot path.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// NopSink discards every event. Useful when a caller only cares about the
// return value of Spawn/SendRequest, not the line-by-line stream.
var NopSink Sink = SinkFunc(func(Event) {})
