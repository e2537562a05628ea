package application

import (
	"context"
	"testing"
	"time"

	"pennybid/domain/entities"
	"pennybid/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func TestAuctionTimer_ClosesAuctionAndIssuesRefunds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	timer := NewAuctionTimer(h.engine, h.refunds, h.clock, time.Minute)
	RegisterApplicationSubscriptions(h.publisher, timer)
	stop := timer.Start(ctx)
	defer stop()

	// discovery loop
	require.Eventually(t, func() bool { return h.clock.Tickers() == 1 }, waitFor, time.Millisecond)

	alice := h.createFundedUser(t, "alice@example.com", 1000)
	bob := h.createFundedUser(t, "bob@example.com", 1000)

	auction := h.createAuction(t, 3)
	require.Eventually(t, func() bool { return h.clock.Tickers() == 2 }, waitFor, time.Millisecond)
	assert.Equal(t, 1, timer.Watching())

	_, err := h.engine.PlaceBid(ctx, auction.ID, alice)
	require.NoError(t, err)
	_, err = h.engine.PlaceBid(ctx, auction.ID, bob)
	require.NoError(t, err)

	for want := 2; want >= 0; want-- {
		h.clock.Advance(TickInterval)
		require.Eventually(t, func() bool {
			snapshot, err := h.engine.Get(ctx, auction.ID)
			return err == nil && snapshot.CountdownSeconds == want
		}, waitFor, time.Millisecond)
	}

	closed, err := h.engine.Get(ctx, auction.ID)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed())
	require.NotNil(t, closed.WinnerID)
	assert.Equal(t, bob, *closed.WinnerID)
	assert.Equal(t, int64(200), closed.CurrentPrice)

	// the loser gets the bid fee back, the winner does not
	require.Eventually(t, func() bool { return h.balance(t, alice) == 1000 }, waitFor, time.Millisecond)
	assert.Equal(t, int64(950), h.balance(t, bob))

	refunds := h.store.Refunds()
	require.Len(t, refunds, 1)
	assert.Equal(t, alice, refunds[0].UserID)
	assert.Equal(t, entities.RefundStatusIssued, refunds[0].Status)

	// the countdown loop exits once the auction is resolved
	require.Eventually(t, func() bool { return timer.Watching() == 0 }, waitFor, time.Millisecond)
	assert.Equal(t, 1, h.clock.Tickers())
}

func TestAuctionTimer_DiscoversOpenAuctionsOnStart(t *testing.T) {
	h := newHarness(t)

	first := h.createAuction(t, 10)
	h.createAuction(t, 10)

	closedEarly := h.createAuction(t, 1)
	_, err := h.engine.Tick(context.Background(), closedEarly.ID)
	require.NoError(t, err)

	timer := NewAuctionTimer(h.engine, h.refunds, h.clock, time.Minute)
	stop := timer.Start(context.Background())
	defer stop()

	require.Eventually(t, func() bool { return timer.Watching() == 2 }, waitFor, time.Millisecond)
	assert.False(t, timer.Watch(first.ID), "already watched")
}

func TestAuctionTimer_StopEndsAllLoops(t *testing.T) {
	h := newHarness(t)
	h.createAuction(t, 10)

	timer := NewAuctionTimer(h.engine, h.refunds, h.clock, time.Minute)
	stop := timer.Start(context.Background())

	require.Eventually(t, func() bool { return h.clock.Tickers() == 2 }, waitFor, time.Millisecond)

	stop()

	assert.Equal(t, 0, timer.Watching())
	assert.Equal(t, 0, h.clock.Tickers())
	assert.False(t, timer.Watch(99), "no new loops after stop")
}

func TestAuctionTimer_WatchBeforeStartIsIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	timer := NewAuctionTimer(h.engine, h.refunds, h.clock, 0)

	assert.False(t, timer.Watch(1))
	assert.Equal(t, 0, timer.Watching())
}

func TestAuctionTimer_HandleAuctionOpened(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	timer := NewAuctionTimer(h.engine, h.refunds, h.clock, time.Minute)

	err := timer.HandleAuctionOpened(context.Background(), events.BidPlacedEvent{AuctionID: 1})
	assert.Error(t, err)

	assert.NoError(t, timer.HandleAuctionOpened(context.Background(), events.AuctionOpenedEvent{AuctionID: 1}))
	assert.NoError(t, timer.HandleAuctionOpened(context.Background(), &events.AuctionOpenedEvent{AuctionID: 1}))
}
