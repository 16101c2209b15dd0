package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	EventResearchStarted   EventType = "research_started"
	EventAnalystCompleted  EventType = "analyst_completed"
	EventDebateTriggered   EventType = "debate_triggered"
	EventDebateResolved    EventType = "debate_resolved"
	EventResearchCompleted EventType = "research_completed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Message string
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages the in-process pub/sub event bus. Handler failures
// are logged by implementations and never propagate back to publishers.
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers asynchronously
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes an event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
