package infrastructure

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pennybid/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published events
type recordingPublisher struct {
	mu              sync.Mutex
	PublishedEvents []events.Event
	PublishError    error
}

func (m *recordingPublisher) Publish(event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

func TestTransactionalPublisher_HoldsUntilFlush(t *testing.T) {
	t.Parallel()

	sink := &recordingPublisher{}
	tp := NewTransactionalPublisher(sink)

	bid := events.BidPlacedEvent{AuctionID: 1, UserID: 7, CurrentPrice: 150, TotalBids: 3, CountdownSeconds: 10}
	locked := events.AuctionLockedEvent{AuctionID: 1, CurrentPrice: 1000, Participants: 2}

	require.NoError(t, tp.Publish(bid))
	require.NoError(t, tp.Publish(locked))
	assert.Equal(t, 2, tp.Pending())
	assert.Empty(t, sink.PublishedEvents)

	require.NoError(t, tp.Flush(context.Background()))

	assert.Equal(t, []events.Event{bid, locked}, sink.PublishedEvents)
	assert.Equal(t, 0, tp.Pending())
}

func TestTransactionalPublisher_Discard(t *testing.T) {
	t.Parallel()

	sink := &recordingPublisher{}
	tp := NewTransactionalPublisher(sink)

	require.NoError(t, tp.Publish(events.AuctionClosedEvent{AuctionID: 4, FinalPrice: 1200}))
	tp.Discard()
	require.NoError(t, tp.Flush(context.Background()))

	assert.Empty(t, sink.PublishedEvents)
}

func TestTransactionalPublisher_FlushIgnoresPublishErrors(t *testing.T) {
	t.Parallel()

	sink := &recordingPublisher{PublishError: errors.New("bus down")}
	tp := NewTransactionalPublisher(sink)

	require.NoError(t, tp.Publish(events.UserCreatedEvent{UserID: 1, Email: "a@example.com", Name: "A"}))

	assert.NoError(t, tp.Flush(context.Background()))
	assert.Equal(t, 0, tp.Pending())
}

func TestLocalEventPublisher_DispatchesByType(t *testing.T) {
	t.Parallel()

	p := NewLocalEventPublisher()

	var opened []int64
	p.RegisterLocalHandler(events.EventTypeAuctionOpened, func(ctx context.Context, event events.Event) error {
		opened = append(opened, event.(events.AuctionOpenedEvent).AuctionID)
		return nil
	})
	p.RegisterLocalHandler(events.EventTypeAuctionOpened, func(ctx context.Context, event events.Event) error {
		return errors.New("second handler fails")
	})

	require.NoError(t, p.Publish(events.AuctionOpenedEvent{AuctionID: 9}))
	require.NoError(t, p.Publish(events.BidPlacedEvent{AuctionID: 9}))

	assert.Equal(t, []int64{9}, opened)
}
