package infrastructure

import (
	"fmt"

	"pennybid/domain/events"
)

const (
	SubjectAuctionOpened  = "auctions.opened"
	SubjectBidPlaced      = "auctions.bid_placed"
	SubjectAuctionLocked  = "auctions.locked"
	SubjectAuctionClosed  = "auctions.closed"
	SubjectRefundIssued   = "wallets.refund_issued"
	SubjectBalanceChanged = "wallets.balance_changed"
	SubjectUserCreated    = "users.created"
)

var subjectsByType = map[events.EventType]string{
	events.EventTypeAuctionOpened: SubjectAuctionOpened,
	events.EventTypeBidPlaced:     SubjectBidPlaced,
	events.EventTypeAuctionLocked: SubjectAuctionLocked,
	events.EventTypeAuctionClosed: SubjectAuctionClosed,
	events.EventTypeRefundIssued:  SubjectRefundIssued,
	events.EventTypeBalanceChange: SubjectBalanceChanged,
	events.EventTypeUserCreated:   SubjectUserCreated,
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectAuctionOpened,
		SubjectBidPlaced,
		SubjectAuctionLocked,
		SubjectAuctionClosed,
		SubjectRefundIssued,
		SubjectBalanceChanged,
		SubjectUserCreated,
	}
}
