package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pennybid/domain/entities"
	"pennybid/domain/events"
	"pennybid/domain/interfaces"

	"github.com/cenkalti/backoff/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRefundRetryMaxElapsed bounds the in-line retry of one refund.
	// Anything still pending afterwards is picked up by the refund worker.
	DefaultRefundRetryMaxElapsed = 30 * time.Second

	refundParallelism = 8
)

// RefundService credits losing participants of closed auctions. Each refund
// row is applied at most once and retried until it is.
type RefundService struct {
	uowFactory interfaces.UnitOfWorkFactory
	wallets    *WalletService
	clock      interfaces.Clock
	metrics    interfaces.MetricsRecorder
	maxElapsed time.Duration

	refundLocks *keyedMutex
	// newBackOff is swapped in tests for a zero-delay policy
	newBackOff func() backoff.BackOff
}

// NewRefundService creates a new refund service
func NewRefundService(uowFactory interfaces.UnitOfWorkFactory, wallets *WalletService, clock interfaces.Clock, metrics interfaces.MetricsRecorder, maxElapsed time.Duration) *RefundService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if maxElapsed <= 0 {
		maxElapsed = DefaultRefundRetryMaxElapsed
	}
	return &RefundService{
		uowFactory:  uowFactory,
		wallets:     wallets,
		clock:       clock,
		metrics:     metrics,
		maxElapsed:  maxElapsed,
		refundLocks: newKeyedMutex(),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
}

// IssueRefunds credits every pending refund of one auction
func (s *RefundService) IssueRefunds(ctx context.Context, auctionID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	pending, err := uow.RefundRepository().GetPendingByAuction(ctx, auctionID)
	uow.Rollback()
	if err != nil {
		return fmt.Errorf("failed to get pending refunds for auction %d: %w", auctionID, err)
	}

	if len(pending) == 0 {
		return nil
	}

	issued, err := s.issueAll(ctx, pending)

	log.WithFields(log.Fields{
		"auction_id": auctionID,
		"pending":    len(pending),
		"issued":     issued,
	}).Info("Processed auction refunds")

	return err
}

// ProcessPending credits up to limit pending refunds across all auctions
func (s *RefundService) ProcessPending(ctx context.Context, limit int) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	pending, err := uow.RefundRepository().GetPending(ctx, limit)
	uow.Rollback()
	if err != nil {
		return 0, fmt.Errorf("failed to get pending refunds: %w", err)
	}

	if len(pending) == 0 {
		return 0, nil
	}

	return s.issueAll(ctx, pending)
}

// issueAll delivers refunds in parallel. Different users never contend on
// the same wallet lock, so the fan-out is bounded only by refundParallelism.
func (s *RefundService) issueAll(ctx context.Context, refunds []*entities.Refund) (int, error) {
	var (
		issued atomic.Int64
		mu     sync.Mutex
		errs   []error
	)

	var g errgroup.Group
	g.SetLimit(refundParallelism)

	for _, refund := range refunds {
		g.Go(func() error {
			if err := s.issueWithRetry(ctx, refund); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("refund %d: %w", refund.ID, err))
				mu.Unlock()
				return nil
			}
			issued.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(issued.Load()), errors.Join(errs...)
}

// issueWithRetry retries one refund with exponential backoff
func (s *RefundService) issueWithRetry(ctx context.Context, refund *entities.Refund) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := s.issueOne(ctx, refund.ID)
		if err == nil {
			return struct{}{}, nil
		}

		s.metrics.RecordRefundFailed()
		s.recordFailure(ctx, refund.ID, err)

		if isPermanentRefundError(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxElapsedTime(s.maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.WithFields(log.Fields{
				"refund_id":  refund.ID,
				"auction_id": refund.AuctionID,
				"user_id":    refund.UserID,
				"retry_in":   next,
				"error":      err,
			}).Warn("Refund failed, retrying")
		}),
	)
	return err
}

// issueOne applies one refund credit in its own unit of work. A refund that is
// no longer pending is treated as delivered.
func (s *RefundService) issueOne(ctx context.Context, refundID int64) error {
	unlockRefund := s.refundLocks.Lock(refundID)
	defer unlockRefund()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	refund, err := uow.RefundRepository().GetForUpdate(ctx, refundID)
	if err != nil {
		return fmt.Errorf("failed to load refund: %w", err)
	}
	if refund == nil {
		return fmt.Errorf("refund %d: %w", refundID, entities.ErrNotFound)
	}
	if !refund.IsPending() {
		return nil
	}

	unlockWallet := s.wallets.lockUser(refund.UserID)
	defer unlockWallet()

	wallet, _, err := creditInUnit(ctx, uow, refund.UserID, refund.Amount, entities.CreditKindRefund, func(h *entities.BalanceHistory) {
		h.WithRelated(refund.AuctionID, entities.RelatedTypeAuction).
			WithMetadata("refund_id", refund.ID)
	})
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if err := uow.RefundRepository().MarkIssued(ctx, refund.ID, now); err != nil {
		return fmt.Errorf("failed to mark refund issued: %w", err)
	}

	if err := uow.EventBus().Publish(events.RefundIssuedEvent{
		RefundID:  refund.ID,
		AuctionID: refund.AuctionID,
		UserID:    refund.UserID,
		Amount:    refund.Amount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish refund issued event")
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.metrics.RecordRefundIssued(refund.Amount)
	s.metrics.RecordBalanceTransaction(string(entities.TransactionTypeRefund))

	log.WithFields(log.Fields{
		"refund_id":   refund.ID,
		"auction_id":  refund.AuctionID,
		"user_id":     refund.UserID,
		"amount":      refund.Amount,
		"new_balance": wallet.Balance,
	}).Info("Refund issued")

	return nil
}

// recordFailure stores the attempt outside the failed transaction
func (s *RefundService) recordFailure(ctx context.Context, refundID int64, cause error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Warn("Failed to begin transaction for refund failure")
		return
	}
	defer uow.Rollback()

	if err := uow.RefundRepository().RecordFailure(ctx, refundID, cause.Error()); err != nil {
		log.WithError(err).Warn("Failed to record refund failure")
		return
	}
	if err := uow.Commit(); err != nil {
		log.WithError(err).Warn("Failed to commit refund failure")
	}
}

// isPermanentRefundError reports errors that retrying cannot fix
func isPermanentRefundError(err error) bool {
	return errors.Is(err, entities.ErrInvalidAmount) ||
		errors.Is(err, entities.ErrInvariantViolation) ||
		errors.Is(err, context.Canceled)
}
