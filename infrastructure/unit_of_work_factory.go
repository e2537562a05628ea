package infrastructure

import (
	"pennybid/domain/events"
	"pennybid/domain/interfaces"
)

// StoreFactory is implemented by the postgres repository factory and by the
// in-memory store
type StoreFactory interface {
	CreateWithPublisher(publisher interfaces.TransactionalEventPublisher) interfaces.UnitOfWork
}

// UnitOfWorkFactory gives every unit of work its own transactional publisher
// so events leave the process only after commit
type UnitOfWorkFactory struct {
	repoFactory    StoreFactory
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new factory over a store
func NewUnitOfWorkFactory(repoFactory StoreFactory, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	if eventPublisher == nil {
		eventPublisher = NewNoopEventPublisher()
	}
	return &UnitOfWorkFactory{
		repoFactory:    repoFactory,
		eventPublisher: eventPublisher,
	}
}

// RegisterLocalHandler registers a handler invoked in-process after commit.
// It is a no-op for publishers without local dispatch.
func (f *UnitOfWorkFactory) RegisterLocalHandler(eventType events.EventType, handler LocalHandler) {
	type localRegistrar interface {
		RegisterLocalHandler(events.EventType, LocalHandler)
	}
	if registrar, ok := f.eventPublisher.(localRegistrar); ok {
		registrar.RegisterLocalHandler(eventType, handler)
	}
}

// Create creates a new UnitOfWork with a transactional event publisher
func (f *UnitOfWorkFactory) Create() interfaces.UnitOfWork {
	return f.repoFactory.CreateWithPublisher(NewTransactionalPublisher(f.eventPublisher))
}
