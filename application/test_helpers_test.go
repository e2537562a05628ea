package application

import (
	"context"
	"testing"
	"time"

	"pennybid/domain/entities"
	"pennybid/domain/services"
	"pennybid/infrastructure"
	"pennybid/infrastructure/clock"
	"pennybid/infrastructure/memstore"

	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// harness wires the real services over the in-memory store and a manual clock
type harness struct {
	clock     *clock.Manual
	store     *memstore.Store
	publisher *infrastructure.LocalEventPublisher
	uow       *infrastructure.UnitOfWorkFactory
	wallets   *services.WalletService
	engine    *services.BiddingEngine
	refunds   *services.RefundService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clk := clock.NewManual(testEpoch)
	store := memstore.New().WithClock(clk)
	publisher := infrastructure.NewLocalEventPublisher()
	uowFactory := infrastructure.NewUnitOfWorkFactory(store, publisher)

	wallets := services.NewWalletService(uowFactory, nil, 100)
	engine := services.NewBiddingEngine(uowFactory, wallets, clk, nil, services.EngineConfig{OpTimeout: time.Second})
	refunds := services.NewRefundService(uowFactory, wallets, clk, nil, time.Second)

	return &harness{
		clock:     clk,
		store:     store,
		publisher: publisher,
		uow:       uowFactory,
		wallets:   wallets,
		engine:    engine,
		refunds:   refunds,
	}
}

// createFundedUser registers a user with a topped up wallet
func (h *harness) createFundedUser(t *testing.T, email string, amount int64) int64 {
	t.Helper()
	ctx := context.Background()

	uow := h.uow.Create()
	require.NoError(t, uow.Begin(ctx))
	user, err := uow.UserRepository().Create(ctx, email, email, "hash")
	require.NoError(t, err)
	require.NoError(t, uow.Commit())

	_, err = h.wallets.Register(ctx, user.ID)
	require.NoError(t, err)
	if amount > 0 {
		_, err = h.wallets.TopUp(ctx, user.ID, amount)
		require.NoError(t, err)
	}
	return user.ID
}

func (h *harness) createAuction(t *testing.T, resetSeconds int) *entities.Auction {
	t.Helper()

	auction, err := h.engine.CreateAuction(context.Background(), entities.AuctionParams{
		Title:             "Phone",
		Category:          "electronics",
		RetailPrice:       100000,
		StartPrice:        100,
		MinPriceThreshold: 1000,
		BidIncrement:      50,
		BidCost:           50,
		ResetSeconds:      resetSeconds,
	})
	require.NoError(t, err)
	return auction
}

func (h *harness) balance(t *testing.T, userID int64) int64 {
	t.Helper()
	summary, err := h.wallets.Summary(context.Background(), userID)
	require.NoError(t, err)
	return summary.Wallet.Balance
}
