package application

import (
	"context"

	"pennybid/domain/events"
)

// EventSubscriber registers handlers that run in-process after a unit of work commits
type EventSubscriber interface {
	RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error)
}

// Worker is a background loop. Start returns a function that stops it and
// waits for it to exit.
type Worker interface {
	Start(ctx context.Context) func()
}
