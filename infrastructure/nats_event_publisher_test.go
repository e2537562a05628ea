package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"pennybid/domain/events"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	data    []byte
}

type fakeNATS struct {
	messages []publishedMessage
	err      error
	streams  map[string][]string
}

func (f *fakeNATS) Publish(ctx context.Context, subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, publishedMessage{subject: subject, data: data})
	return nil
}

func (f *fakeNATS) EnsureStream(streamName string, subjects []string) error {
	if f.streams == nil {
		f.streams = make(map[string][]string)
	}
	f.streams[streamName] = subjects
	return nil
}

func TestNATSEventPublisher_Publish(t *testing.T) {
	t.Parallel()

	fake := &fakeNATS{}
	p := NewNATSEventPublisher(fake, NewEventSubjectMapper())
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	winner := int64(42)
	event := events.AuctionClosedEvent{AuctionID: 5, WinnerID: &winner, FinalPrice: 1300}

	var local []events.Event
	p.RegisterLocalHandler(events.EventTypeAuctionClosed, func(ctx context.Context, e events.Event) error {
		local = append(local, e)
		return nil
	})

	require.NoError(t, p.Publish(event))

	require.Len(t, fake.messages, 1)
	assert.Equal(t, SubjectAuctionClosed, fake.messages[0].subject)
	assert.Equal(t, []events.Event{event}, local)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(fake.messages[0].data, &envelope))
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, "auction_closed", envelope.EventType)
	assert.Equal(t, SourceService, envelope.SourceService)
	assert.True(t, fixed.Equal(envelope.Timestamp))

	var payload events.AuctionClosedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event.AuctionID, payload.AuctionID)
	require.NotNil(t, payload.WinnerID)
	assert.Equal(t, winner, *payload.WinnerID)
}

func TestNATSEventPublisher_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "no stream bound is ignored", err: fmt.Errorf("wrapped: %w", nats.ErrNoStreamResponse)},
		{name: "other failures surface", err: errors.New("connection refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewNATSEventPublisher(&fakeNATS{err: tt.err}, NewEventSubjectMapper())
			err := p.Publish(events.BidPlacedEvent{AuctionID: 1, UserID: 2})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNATSEventPublisher_EnsureDomainEventStream(t *testing.T) {
	t.Parallel()

	fake := &fakeNATS{}
	p := NewNATSEventPublisher(fake, NewEventSubjectMapper())

	require.NoError(t, p.EnsureDomainEventStream())
	assert.ElementsMatch(t, NewEventSubjectMapper().GetAllSubjects(), fake.streams[DomainEventStream])
}

func TestEventSubjectMapper_RoundTrip(t *testing.T) {
	t.Parallel()

	m := NewEventSubjectMapper()
	for _, subject := range m.GetAllSubjects() {
		eventType := m.MapSubjectToEventType(subject)
		assert.Equal(t, subject, subjectsByType[eventType], subject)
	}
	assert.Equal(t, events.EventType("misc.thing"), m.MapSubjectToEventType("misc.thing"))
}
