package manager

// Event represents an engine lifecycle event.
// Minimal and stable: name + scale and optional fields via key/values.
type Event struct {
	Name   string
	Scale  int
	Fields map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
