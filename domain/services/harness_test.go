package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"pennybid/domain/entities"
	"pennybid/infrastructure"
	"pennybid/infrastructure/clock"
	"pennybid/infrastructure/memstore"

	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// recordingMetrics counts what the services report
type recordingMetrics struct {
	noopMetrics

	mu         sync.Mutex
	accepted   int
	rejected   map[string]int
	closed     int
	violations int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{rejected: make(map[string]int)}
}

func (m *recordingMetrics) RecordBidAccepted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepted++
}

func (m *recordingMetrics) RecordBidRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[reason]++
}

func (m *recordingMetrics) RecordAuctionClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
}

func (m *recordingMetrics) RecordInvariantViolation(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violations++
}

type engineHarness struct {
	clock   *clock.Manual
	store   *memstore.Store
	uow     *infrastructure.UnitOfWorkFactory
	metrics *recordingMetrics
	wallets *WalletService
	engine  *BiddingEngine
	refunds *RefundService
}

func newEngineHarness(t *testing.T, cfg EngineConfig) *engineHarness {
	t.Helper()

	clk := clock.NewManual(testEpoch)
	store := memstore.New().WithClock(clk)
	uowFactory := infrastructure.NewUnitOfWorkFactory(store, infrastructure.NewLocalEventPublisher())
	metrics := newRecordingMetrics()

	wallets := NewWalletService(uowFactory, metrics, 100)
	if cfg.OpTimeout == 0 {
		cfg.OpTimeout = time.Second
	}

	return &engineHarness{
		clock:   clk,
		store:   store,
		uow:     uowFactory,
		metrics: metrics,
		wallets: wallets,
		engine:  NewBiddingEngine(uowFactory, wallets, clk, metrics, cfg),
		refunds: NewRefundService(uowFactory, wallets, clk, metrics, time.Second),
	}
}

func (h *engineHarness) createUser(t *testing.T, email string, topUp int64) int64 {
	t.Helper()
	ctx := context.Background()

	uow := h.uow.Create()
	require.NoError(t, uow.Begin(ctx))
	user, err := uow.UserRepository().Create(ctx, email, email, "hash")
	require.NoError(t, err)
	require.NoError(t, uow.Commit())

	_, err = h.wallets.Register(ctx, user.ID)
	require.NoError(t, err)
	if topUp > 0 {
		_, err = h.wallets.TopUp(ctx, user.ID, topUp)
		require.NoError(t, err)
	}
	return user.ID
}

func (h *engineHarness) createAuction(t *testing.T, mutate func(p *entities.AuctionParams)) *entities.Auction {
	t.Helper()

	params := entities.AuctionParams{
		Title:             "Phone",
		Category:          "electronics",
		RetailPrice:       100000,
		StartPrice:        100,
		MinPriceThreshold: 1000,
		BidIncrement:      50,
		BidCost:           50,
		ResetSeconds:      10,
	}
	if mutate != nil {
		mutate(&params)
	}

	auction, err := h.engine.CreateAuction(context.Background(), params)
	require.NoError(t, err)
	return auction
}

func (h *engineHarness) wallet(t *testing.T, userID int64) *entities.Wallet {
	t.Helper()
	summary, err := h.wallets.Summary(context.Background(), userID)
	require.NoError(t, err)
	return summary.Wallet
}

// tickUntilClosed drives the countdown to zero
func (h *engineHarness) tickUntilClosed(t *testing.T, auctionID int64) *entities.Auction {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		h.clock.Advance(time.Second)
		snapshot, err := h.engine.Tick(ctx, auctionID)
		require.NoError(t, err)
		if snapshot.IsClosed() {
			return snapshot
		}
	}
	t.Fatalf("auction %d never closed", auctionID)
	return nil
}
