package repository

import (
	"context"
	"testing"
	"time"

	"pennybid/domain/entities"
	"pennybid/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuctionRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAuctionRepository(testDB.DB)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, testDB.DB, "alice@example.com", 1000)
	bob := testutil.CreateTestUser(t, testDB.DB, "bob@example.com", 1000)

	t.Run("not found", func(t *testing.T) {
		auction, err := repo.Load(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, auction)
	})

	t.Run("state and participant spend round trip", func(t *testing.T) {
		auction := testutil.CreateTestAuction(t, 1)
		require.NoError(t, repo.Create(ctx, auction))
		require.NotZero(t, auction.ID)

		now := time.Now().UTC()
		_, err := auction.ApplyBid(alice.ID, now)
		require.NoError(t, err)
		_, err = auction.ApplyBid(bob.ID, now)
		require.NoError(t, err)
		_, err = auction.ApplyBid(alice.ID, now)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, auction))

		loaded, err := repo.Load(ctx, auction.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, int64(150), loaded.CurrentPrice)
		assert.Equal(t, int64(3), loaded.TotalBids)
		assert.Equal(t, map[int64]int64{alice.ID: 100, bob.ID: 50}, loaded.PerUserSpend)
		require.NotNil(t, loaded.LastBidderID)
		assert.Equal(t, alice.ID, *loaded.LastBidderID)
		assert.NoError(t, loaded.CheckInvariants())
	})

	t.Run("list open skips closed and filters category", func(t *testing.T) {
		open := testutil.CreateTestAuction(t, 2)
		open.Category = "watches"
		require.NoError(t, repo.Create(ctx, open))

		closed := testutil.CreateTestAuction(t, 3)
		closed.Category = "watches"
		require.NoError(t, repo.Create(ctx, closed))
		res, err := closed.Close(time.Now().UTC())
		require.NoError(t, err)
		require.NotNil(t, res)
		require.NoError(t, repo.Save(ctx, closed))

		auctions, err := repo.ListOpen(ctx, "watches")
		require.NoError(t, err)
		require.Len(t, auctions, 1)
		assert.Equal(t, open.ID, auctions[0].ID)

		all, err := repo.ListOpen(ctx, "")
		require.NoError(t, err)
		for _, a := range all {
			assert.NotEqual(t, entities.AuctionStatusClosed, a.Status)
		}
	})
}
