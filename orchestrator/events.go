package orchestrator

// EventSink receives orchestrator lifecycle events (spec §4.J):
// agent_selected, agent_nesting, plan_mode_entered, plan_mode_review,
// plan_mode_executing, plan_step_start, plan_step_done, plan_step_failed,
// plan_mode_exited. Payload values are primitives only.
type EventSink interface {
	Emit(name string, payload map[string]any)
}

type noopSink struct{}

func (noopSink) Emit(string, map[string]any) {}

// Event is one emitted lifecycle event, as delivered by ChannelSink.
type Event struct {
	Name    string
	Payload map[string]any
}

// ChannelSink emits events onto a buffered channel for a UI or logger to
// drain. Emit never blocks: once the buffer is full, further events are
// dropped rather than stalling the orchestrator.
type ChannelSink struct {
	Events chan Event
}

// NewChannelSink builds a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{Events: make(chan Event, buffer)}
}

func (c *ChannelSink) Emit(name string, payload map[string]any) {
	select {
	case c.Events <- Event{Name: name, Payload: payload}:
	default:
	}
}
