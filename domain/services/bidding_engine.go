package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pennybid/domain/entities"
	"pennybid/domain/events"
	"pennybid/domain/interfaces"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultRecentBids = 10

// EngineConfig tunes the bidding engine
type EngineConfig struct {
	// OpTimeout bounds the store work done while an auction is locked
	OpTimeout time.Duration
	// BidRate is the sustained number of bids per second allowed per user. 0 disables limiting.
	BidRate float64
	BidBurst int
}

// DefaultEngineConfig returns the settings used when none are configured
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		OpTimeout: 3 * time.Second,
		BidRate:   0,
		BidBurst:  1,
	}
}

// BiddingEngine serializes bids and countdown ticks per auction. Every
// mutation runs inside one unit of work and the first committer wins.
type BiddingEngine struct {
	uowFactory interfaces.UnitOfWorkFactory
	wallets    *WalletService
	clock      interfaces.Clock
	metrics    interfaces.MetricsRecorder
	cfg        EngineConfig

	auctionLocks *keyedMutex

	limiterMu sync.Mutex
	limiters  map[int64]*rate.Limiter
}

// NewBiddingEngine creates a new bidding engine
func NewBiddingEngine(uowFactory interfaces.UnitOfWorkFactory, wallets *WalletService, clock interfaces.Clock, metrics interfaces.MetricsRecorder, cfg EngineConfig) *BiddingEngine {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultEngineConfig().OpTimeout
	}
	if cfg.BidBurst <= 0 {
		cfg.BidBurst = 1
	}
	return &BiddingEngine{
		uowFactory:   uowFactory,
		wallets:      wallets,
		clock:        clock,
		metrics:      metrics,
		cfg:          cfg,
		auctionLocks: newKeyedMutex(),
		limiters:     make(map[int64]*rate.Limiter),
	}
}

// CreateAuction publishes a new listing
func (e *BiddingEngine) CreateAuction(ctx context.Context, params entities.AuctionParams) (*entities.Auction, error) {
	auction, err := entities.NewAuction(params)
	if err != nil {
		return nil, fmt.Errorf("invalid auction: %w", err)
	}
	now := e.clock.Now()
	auction.CreatedAt = now
	auction.UpdatedAt = now

	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.AuctionRepository().Create(ctx, auction); err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}

	if err := uow.EventBus().Publish(events.AuctionOpenedEvent{
		AuctionID:    auction.ID,
		Title:        auction.Title,
		Category:     auction.Category,
		StartPrice:   auction.StartPrice,
		ResetSeconds: auction.ResetSeconds,
	}); err != nil {
		log.WithError(err).Error("Failed to publish auction opened event")
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	e.metrics.UpdateActiveAuctions(1)

	log.WithFields(log.Fields{
		"auction_id":    auction.ID,
		"title":         auction.Title,
		"category":      auction.Category,
		"start_price":   auction.StartPrice,
		"lock_price":    auction.MinPriceThreshold,
		"reset_seconds": auction.ResetSeconds,
	}).Info("Auction created")

	return auction.Clone(), nil
}

// PlaceBid attempts a paid bid by userID
func (e *BiddingEngine) PlaceBid(ctx context.Context, auctionID, userID int64) (*entities.Auction, error) {
	if userID <= 0 {
		return nil, entities.ErrUnauthenticated
	}
	if !e.allowBid(userID) {
		e.metrics.RecordBidRejected(rejectReason(entities.ErrRateLimited))
		return nil, entities.ErrRateLimited
	}

	unlock := e.auctionLocks.Lock(auctionID)
	defer unlock()

	snapshot, err := e.placeBidLocked(ctx, auctionID, userID)
	if err != nil {
		e.metrics.RecordBidRejected(rejectReason(err))
		if errors.Is(err, entities.ErrInvariantViolation) {
			e.reportInvariant("place_bid", auctionID, err)
		}
		return nil, err
	}
	e.metrics.RecordBidAccepted()
	return snapshot, nil
}

func (e *BiddingEngine) placeBidLocked(ctx context.Context, auctionID, userID int64) (*entities.Auction, error) {
	opCtx, cancel := context.WithTimeout(ctx, e.cfg.OpTimeout)
	defer cancel()

	uow := e.uowFactory.Create()
	if err := uow.Begin(opCtx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auction, err := uow.AuctionRepository().Load(opCtx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load auction: %w", err)
	}
	if auction == nil {
		return nil, fmt.Errorf("auction %d: %w", auctionID, entities.ErrNotFound)
	}

	if err := auction.CheckEligibility(userID); err != nil {
		return nil, err
	}

	user, err := uow.UserRepository().GetByID(opCtx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, entities.ErrNotFound)
	}
	if user.IsBlocked {
		return nil, fmt.Errorf("user %d is blocked: %w", userID, entities.ErrNotEligible)
	}

	unlockWallet := e.wallets.lockUser(userID)
	defer unlockWallet()

	wallet, err := debitInUnit(opCtx, uow, userID, auction.BidCost, auctionID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	prevPrice := auction.CurrentPrice
	locked, err := auction.ApplyBid(userID, now)
	if err != nil {
		return nil, err
	}

	if err := uow.AuctionRepository().Save(opCtx, auction); err != nil {
		return nil, fmt.Errorf("failed to save auction: %w", err)
	}

	bid := &entities.Bid{
		AuctionID:  auctionID,
		UserID:     userID,
		Amount:     auction.BidCost,
		PriceAfter: auction.CurrentPrice,
		CreatedAt:  now,
	}
	if err := uow.BidRepository().Record(opCtx, bid); err != nil {
		return nil, fmt.Errorf("failed to record bid: %w", err)
	}

	bus := uow.EventBus()
	if err := bus.Publish(events.BidPlacedEvent{
		AuctionID:        auctionID,
		UserID:           userID,
		CurrentPrice:     auction.CurrentPrice,
		TotalBids:        auction.TotalBids,
		CountdownSeconds: auction.CountdownSeconds,
	}); err != nil {
		log.WithError(err).Error("Failed to publish bid placed event")
	}
	if locked {
		if err := bus.Publish(events.AuctionLockedEvent{
			AuctionID:    auctionID,
			CurrentPrice: auction.CurrentPrice,
			Participants: auction.ParticipantCount(),
		}); err != nil {
			log.WithError(err).Error("Failed to publish auction locked event")
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	e.metrics.RecordBalanceTransaction(string(entities.TransactionTypeBid))

	log.WithFields(log.Fields{
		"auction_id":  auctionID,
		"user_id":     userID,
		"price_from":  prevPrice,
		"price_to":    auction.CurrentPrice,
		"total_bids":  auction.TotalBids,
		"new_balance": wallet.Balance,
		"locked":      locked,
	}).Debug("Bid accepted")

	return auction.Clone(), nil
}

// Tick advances the countdown of one auction by one second and resolves it
// when the countdown runs out. Ticking a closed auction is a no-op.
func (e *BiddingEngine) Tick(ctx context.Context, auctionID int64) (*entities.Auction, error) {
	start := time.Now()
	defer func() { e.metrics.RecordTickDuration(time.Since(start)) }()

	unlock := e.auctionLocks.Lock(auctionID)
	defer unlock()

	snapshot, resolution, err := e.tickLocked(ctx, auctionID)
	if err != nil {
		if errors.Is(err, entities.ErrInvariantViolation) {
			e.reportInvariant("tick", auctionID, err)
		}
		return nil, err
	}

	if resolution != nil {
		e.metrics.RecordAuctionClosed()
		e.metrics.UpdateActiveAuctions(-1)

		fields := log.Fields{
			"auction_id":   auctionID,
			"final_price":  resolution.FinalPrice,
			"total_bids":   snapshot.TotalBids,
			"refunds_owed": len(resolution.Refunds),
		}
		if resolution.WinnerID != nil {
			fields["winner_id"] = *resolution.WinnerID
		}
		log.WithFields(fields).Info("Auction closed")
	}

	return snapshot, nil
}

func (e *BiddingEngine) tickLocked(ctx context.Context, auctionID int64) (*entities.Auction, *entities.AuctionResolution, error) {
	opCtx, cancel := context.WithTimeout(ctx, e.cfg.OpTimeout)
	defer cancel()

	uow := e.uowFactory.Create()
	if err := uow.Begin(opCtx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auction, err := uow.AuctionRepository().Load(opCtx, auctionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load auction: %w", err)
	}
	if auction == nil {
		return nil, nil, fmt.Errorf("auction %d: %w", auctionID, entities.ErrNotFound)
	}
	if auction.IsClosed() {
		return auction.Clone(), nil, nil
	}

	now := e.clock.Now()
	expired, err := auction.Tick(now)
	if err != nil {
		return nil, nil, err
	}

	var resolution *entities.AuctionResolution
	if expired {
		if resolution, err = auction.Close(now); err != nil {
			return nil, nil, err
		}
	}

	if err := uow.AuctionRepository().Save(opCtx, auction); err != nil {
		return nil, nil, fmt.Errorf("failed to save auction: %w", err)
	}

	if resolution != nil {
		if refunds := entities.RefundsFromResolution(resolution); len(refunds) > 0 {
			if err := uow.RefundRepository().Enqueue(opCtx, refunds); err != nil {
				return nil, nil, fmt.Errorf("failed to enqueue refunds: %w", err)
			}
		}
		if err := uow.EventBus().Publish(events.AuctionClosedEvent{
			AuctionID:  auctionID,
			WinnerID:   resolution.WinnerID,
			FinalPrice: resolution.FinalPrice,
		}); err != nil {
			log.WithError(err).Error("Failed to publish auction closed event")
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return auction.Clone(), resolution, nil
}

// Get returns a snapshot of one auction
func (e *BiddingEngine) Get(ctx context.Context, auctionID int64) (*entities.Auction, error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auction, err := uow.AuctionRepository().Load(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load auction: %w", err)
	}
	if auction == nil {
		return nil, fmt.Errorf("auction %d: %w", auctionID, entities.ErrNotFound)
	}
	return auction.Clone(), nil
}

// RecentBids returns the latest accepted bids on an auction, newest first
func (e *BiddingEngine) RecentBids(ctx context.Context, auctionID int64, limit int) ([]*entities.Bid, error) {
	if limit <= 0 {
		limit = defaultRecentBids
	}

	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auction, err := uow.AuctionRepository().Load(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load auction: %w", err)
	}
	if auction == nil {
		return nil, fmt.Errorf("auction %d: %w", auctionID, entities.ErrNotFound)
	}

	bids, err := uow.BidRepository().GetByAuction(ctx, auctionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bids for auction %d: %w", auctionID, err)
	}
	return bids, nil
}

// ListOpen returns auctions still accepting bids. An empty category matches all.
func (e *BiddingEngine) ListOpen(ctx context.Context, category string) ([]*entities.Auction, error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auctions, err := uow.AuctionRepository().ListOpen(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list open auctions: %w", err)
	}

	out := make([]*entities.Auction, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, a.Clone())
	}
	return out, nil
}

// allowBid applies the per-user bid rate limit
func (e *BiddingEngine) allowBid(userID int64) bool {
	if e.cfg.BidRate <= 0 {
		return true
	}

	e.limiterMu.Lock()
	limiter, ok := e.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(e.cfg.BidRate), e.cfg.BidBurst)
		e.limiters[userID] = limiter
	}
	e.limiterMu.Unlock()

	return limiter.AllowN(e.clock.Now(), 1)
}

func (e *BiddingEngine) reportInvariant(operation string, auctionID int64, err error) {
	e.metrics.RecordInvariantViolation(operation)
	log.WithFields(log.Fields{
		"operation":  operation,
		"auction_id": auctionID,
		"error":      err,
	}).Error("Auction invariant violated, operation aborted")
}

// rejectReason maps an error onto a metric label
func rejectReason(err error) string {
	switch {
	case errors.Is(err, entities.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, entities.ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, entities.ErrAuctionClosed):
		return "auction_closed"
	case errors.Is(err, entities.ErrNotFound):
		return "not_found"
	case errors.Is(err, entities.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, entities.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, entities.ErrInvariantViolation):
		return "invariant_violation"
	default:
		return "error"
	}
}
