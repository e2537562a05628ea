package infrastructure

import (
	"context"
	"sync"

	"pennybid/domain/events"

	log "github.com/sirupsen/logrus"
)

// LocalHandler reacts to an event inside the publishing process
type LocalHandler = func(context.Context, events.Event) error

// localHandlers is the in-process dispatch table shared by the publishers
type localHandlers struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]LocalHandler
}

func newLocalHandlers() *localHandlers {
	return &localHandlers{handlers: make(map[events.EventType][]LocalHandler)}
}

func (l *localHandlers) register(eventType events.EventType, handler LocalHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.handlers[eventType] = append(l.handlers[eventType], handler)
	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(l.handlers[eventType]),
	}).Info("Registered local event handler")
}

// dispatch runs every handler for the event. Handler errors are logged and
// never stop the remaining handlers.
func (l *localHandlers) dispatch(ctx context.Context, event events.Event) {
	l.mu.RLock()
	handlers := l.handlers[event.Type()]
	l.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Local event handler failed")
		}
	}
}

// LocalEventPublisher delivers events to in-process handlers only. It stands
// in for NATS when no servers are configured.
type LocalEventPublisher struct {
	handlers *localHandlers
}

// NewLocalEventPublisher creates a publisher without a message bus
func NewLocalEventPublisher() *LocalEventPublisher {
	return &LocalEventPublisher{handlers: newLocalHandlers()}
}

// Publish hands the event to registered handlers
func (p *LocalEventPublisher) Publish(event events.Event) error {
	p.handlers.dispatch(context.Background(), event)
	return nil
}

// RegisterLocalHandler registers a handler for one event type
func (p *LocalEventPublisher) RegisterLocalHandler(eventType events.EventType, handler LocalHandler) {
	p.handlers.register(eventType, handler)
}
