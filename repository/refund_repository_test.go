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

func TestRefundRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, testDB.DB, "alice@example.com", 1000)
	bob := testutil.CreateTestUser(t, testDB.DB, "bob@example.com", 1000)

	auction := testutil.CreateTestAuction(t, 1)
	require.NoError(t, NewAuctionRepository(testDB.DB).Create(ctx, auction))

	repo := newRefundRepositoryWithTx(testDB.DB.Pool)

	refunds := []*entities.Refund{
		{AuctionID: auction.ID, UserID: alice.ID, Amount: 150},
		{AuctionID: auction.ID, UserID: bob.ID, Amount: 50},
	}
	require.NoError(t, repo.Enqueue(ctx, refunds))
	for _, r := range refunds {
		assert.NotZero(t, r.ID)
		assert.Equal(t, entities.RefundStatusPending, r.Status)
	}

	t.Run("enqueue twice owes once", func(t *testing.T) {
		again := []*entities.Refund{{AuctionID: auction.ID, UserID: alice.ID, Amount: 150}}
		require.NoError(t, repo.Enqueue(ctx, again))
		assert.Zero(t, again[0].ID)

		pending, err := repo.GetPendingByAuction(ctx, auction.ID)
		require.NoError(t, err)
		assert.Len(t, pending, 2)
	})

	t.Run("failure then issue", func(t *testing.T) {
		require.NoError(t, repo.RecordFailure(ctx, refunds[1].ID, "wallet locked"))

		got, err := repo.GetForUpdate(ctx, refunds[1].ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Attempts)
		require.NotNil(t, got.LastError)
		assert.Equal(t, "wallet locked", *got.LastError)

		require.NoError(t, repo.MarkIssued(ctx, refunds[1].ID, time.Now().UTC()))

		pending, err := repo.GetPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, refunds[0].ID, pending[0].ID)
	})

	t.Run("unknown refund", func(t *testing.T) {
		got, err := repo.GetForUpdate(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.ErrorIs(t, repo.MarkIssued(ctx, 999999, time.Now()), entities.ErrNotFound)
	})
}
