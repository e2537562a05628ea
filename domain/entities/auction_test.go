package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testParams() AuctionParams {
	return AuctionParams{
		Title:             "Phone",
		Category:          "electronics",
		RetailPrice:       100000,
		StartPrice:        100,
		MinPriceThreshold: 1000,
		BidIncrement:      50,
		BidCost:           50,
		ResetSeconds:      10,
	}
}

func newTestAuction(t *testing.T) *Auction {
	t.Helper()
	a, err := NewAuction(testParams())
	require.NoError(t, err)
	a.ID = 1
	return a
}

func TestNewAuction_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(p *AuctionParams)
		wantErr string
	}{
		{"valid", func(p *AuctionParams) {}, ""},
		{"missing title", func(p *AuctionParams) { p.Title = "" }, "title is required"},
		{"zero reset", func(p *AuctionParams) { p.ResetSeconds = 0 }, "reset seconds must be positive"},
		{"zero increment", func(p *AuctionParams) { p.BidIncrement = 0 }, "bid increment must be positive"},
		{"zero bid cost", func(p *AuctionParams) { p.BidCost = 0 }, "bid cost must be positive"},
		{"negative start", func(p *AuctionParams) { p.StartPrice = -1 }, "start price cannot be negative"},
		{"threshold at start", func(p *AuctionParams) { p.MinPriceThreshold = p.StartPrice }, "lock threshold must be above the start price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := testParams()
			tt.mutate(&p)
			a, err := NewAuction(p)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, AuctionStatusOpen, a.Status)
				assert.Equal(t, p.StartPrice, a.CurrentPrice)
				assert.Equal(t, p.ResetSeconds, a.CountdownSeconds)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestAuction_ApplyBid(t *testing.T) {
	t.Parallel()

	a := newTestAuction(t)
	a.CountdownSeconds = 4

	locked, err := a.ApplyBid(7, testNow)
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, int64(150), a.CurrentPrice)
	assert.Equal(t, int64(1), a.TotalBids)
	assert.Equal(t, 10, a.CountdownSeconds, "a bid resets the countdown")
	require.NotNil(t, a.LastBidderID)
	assert.Equal(t, int64(7), *a.LastBidderID)
	assert.Equal(t, int64(50), a.PerUserSpend[7])
	assert.True(t, a.IsParticipant(7))
	assert.False(t, a.IsParticipant(8))
}

func TestAuction_PriceFollowsBidCount(t *testing.T) {
	t.Parallel()

	a := newTestAuction(t)
	for i := 0; i < 12; i++ {
		_, err := a.ApplyBid(int64(i%3+1), testNow)
		require.NoError(t, err)
		assert.Equal(t, a.StartPrice+a.TotalBids*a.BidIncrement, a.CurrentPrice)
	}
	assert.Equal(t, int64(700), a.CurrentPrice)
	assert.Equal(t, 3, a.ParticipantCount())
	assert.NoError(t, a.CheckInvariants())
}

func TestAuction_LocksAtThreshold(t *testing.T) {
	t.Parallel()

	a := newTestAuction(t)

	// 17 bids take the price to 950
	for i := 0; i < 17; i++ {
		locked, err := a.ApplyBid(1, testNow)
		require.NoError(t, err)
		assert.False(t, locked)
	}
	assert.Equal(t, int64(950), a.CurrentPrice)
	assert.False(t, a.IsLocked())

	locked, err := a.ApplyBid(1, testNow)
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, int64(1000), a.CurrentPrice)
	assert.True(t, a.IsLocked())

	// newcomers are turned away, existing participants keep bidding
	assert.ErrorIs(t, a.CheckEligibility(2), ErrNotEligible)
	_, err = a.ApplyBid(2, testNow)
	assert.ErrorIs(t, err, ErrNotEligible)

	locked, err = a.ApplyBid(1, testNow)
	require.NoError(t, err)
	assert.False(t, locked, "locking happens once")
	assert.Equal(t, AuctionStatusLocked, a.Status)
}

func TestAuction_Tick(t *testing.T) {
	t.Parallel()

	a := newTestAuction(t)
	a.CountdownSeconds = 2

	expired, err := a.Tick(testNow)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, 1, a.CountdownSeconds)

	expired, err = a.Tick(testNow)
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, 0, a.CountdownSeconds)

	_, err = a.Close(testNow)
	require.NoError(t, err)
	expired, err = a.Tick(testNow)
	require.NoError(t, err)
	assert.False(t, expired, "a closed auction does not expire again")
}

func TestAuction_Close(t *testing.T) {
	t.Parallel()

	a := newTestAuction(t)
	for _, userID := range []int64{1, 2, 1, 3, 2} {
		_, err := a.ApplyBid(userID, testNow)
		require.NoError(t, err)
	}

	res, err := a.Close(testNow)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, a.IsClosed())
	require.NotNil(t, a.WinnerID)
	assert.Equal(t, int64(2), *a.WinnerID)
	assert.Equal(t, int64(2), *res.WinnerID)
	assert.Equal(t, int64(350), res.FinalPrice)
	require.NotNil(t, a.ClosedAt)
	assert.Equal(t, testNow, *a.ClosedAt)

	assert.Equal(t, []RefundDue{
		{UserID: 1, Amount: 100},
		{UserID: 3, Amount: 50},
	}, res.Refunds)

	again, err := a.Close(testNow)
	require.NoError(t, err)
	assert.Nil(t, again, "closing twice resolves nothing")
	assert.ErrorIs(t, a.CheckEligibility(1), ErrAuctionClosed)

	before := a.Clone()
	_, err = a.ApplyBid(1, testNow)
	assert.ErrorIs(t, err, ErrAuctionClosed)
	assert.Equal(t, before, a, "rejected bid leaves the auction untouched")
}

func TestAuction_CloseWithoutBids(t *testing.T) {
	t.Parallel()

	a := newTestAuction(t)
	res, err := a.Close(testNow)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Nil(t, res.WinnerID)
	assert.Empty(t, res.Refunds)
	assert.Empty(t, RefundsFromResolution(res))
}

func TestAuction_CheckInvariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(a *Auction)
	}{
		{"unknown status", func(a *Auction) { a.Status = "paused" }},
		{"countdown above reset", func(a *Auction) { a.CountdownSeconds = a.ResetSeconds + 1 }},
		{"negative countdown", func(a *Auction) { a.CountdownSeconds = -1 }},
		{"price drift", func(a *Auction) { a.CurrentPrice += 1 }},
		{"spend drift", func(a *Auction) { a.PerUserSpend[99] = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := newTestAuction(t)
			_, err := a.ApplyBid(1, testNow)
			require.NoError(t, err)

			tt.mutate(a)
			assert.ErrorIs(t, a.CheckInvariants(), ErrInvariantViolation)
		})
	}
}

func TestAuction_Discount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		retail  int64
		current int64
		want    int64
	}{
		{"three quarters off", 1000, 250, 75},
		{"rounded", 3000, 1000, 67},
		{"no retail price", 0, 100, 0},
		{"at retail", 500, 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := &Auction{RetailPrice: tt.retail, CurrentPrice: tt.current}
			assert.Equal(t, tt.want, a.Discount())
		})
	}
}

func TestAuction_CloneIsDeep(t *testing.T) {
	t.Parallel()

	a := newTestAuction(t)
	_, err := a.ApplyBid(1, testNow)
	require.NoError(t, err)

	c := a.Clone()
	c.PerUserSpend[1] = 999
	*c.LastBidderID = 42

	assert.Equal(t, int64(50), a.PerUserSpend[1])
	assert.Equal(t, int64(1), *a.LastBidderID)
}

func TestAuctionStatus_Transitions(t *testing.T) {
	t.Parallel()

	assert.True(t, AuctionStatusOpen.CanTransitionTo(AuctionStatusLocked))
	assert.True(t, AuctionStatusOpen.CanTransitionTo(AuctionStatusClosed))
	assert.True(t, AuctionStatusLocked.CanTransitionTo(AuctionStatusClosed))
	assert.False(t, AuctionStatusLocked.CanTransitionTo(AuctionStatusOpen))
	assert.False(t, AuctionStatusClosed.CanTransitionTo(AuctionStatusOpen))
	assert.False(t, AuctionStatusOpen.CanTransitionTo("paused"))
	assert.False(t, AuctionStatus("paused").CanTransitionTo(AuctionStatusClosed))
}

func TestAuction_StatusChangesOnlyMoveForward(t *testing.T) {
	t.Parallel()

	t.Run("lock from unknown status", func(t *testing.T) {
		a := newTestAuction(t)
		a.Status = "paused"
		a.CurrentPrice = a.MinPriceThreshold - a.BidIncrement
		a.TotalBids = (a.CurrentPrice - a.StartPrice) / a.BidIncrement
		a.PerUserSpend[7] = a.TotalBids * a.BidCost

		locked, err := a.ApplyBid(7, testNow)
		assert.ErrorIs(t, err, ErrInvariantViolation)
		assert.False(t, locked)
		assert.Equal(t, AuctionStatus("paused"), a.Status)
	})

	t.Run("close from unknown status", func(t *testing.T) {
		a := newTestAuction(t)
		a.Status = "paused"

		res, err := a.Close(testNow)
		assert.ErrorIs(t, err, ErrInvariantViolation)
		assert.Nil(t, res)
		assert.Nil(t, a.ClosedAt)
		assert.Equal(t, AuctionStatus("paused"), a.Status)
	})

	t.Run("locked auction closes", func(t *testing.T) {
		a := newTestAuction(t)
		a.Status = AuctionStatusLocked

		res, err := a.Close(testNow)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, a.IsClosed())
	})
}

func TestAuction_Participants(t *testing.T) {
	t.Parallel()

	a := newTestAuction(t)
	assert.Empty(t, a.Participants())

	for _, userID := range []int64{3, 1, 3, 2, 1, 3} {
		_, err := a.ApplyBid(userID, testNow)
		require.NoError(t, err)
	}

	assert.Equal(t, []Participant{
		{UserID: 3, Spend: 150},
		{UserID: 1, Spend: 100},
		{UserID: 2, Spend: 50},
	}, a.Participants())
}
