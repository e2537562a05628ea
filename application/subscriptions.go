package application

import (
	"context"

	"pennybid/domain/events"
)

// RegisterApplicationSubscriptions wires application handlers to domain events
// raised in this process
func RegisterApplicationSubscriptions(subscriber EventSubscriber, timer *AuctionTimer) {
	subscriber.RegisterLocalHandler(events.EventTypeAuctionOpened,
		func(ctx context.Context, event events.Event) error {
			return timer.HandleAuctionOpened(ctx, event)
		})
}
