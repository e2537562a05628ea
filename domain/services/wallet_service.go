package services

import (
	"context"
	"fmt"

	"pennybid/domain/entities"
	"pennybid/domain/interfaces"
	"pennybid/domain/utils"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultMinTopUp is the smallest deposit accepted by TopUp
	DefaultMinTopUp int64 = 100

	// DefaultHistoryLimit is the number of ledger entries returned when no limit is given
	DefaultHistoryLimit = 50
)

// WalletService applies debits and credits, one user at a time
type WalletService struct {
	uowFactory interfaces.UnitOfWorkFactory
	metrics    interfaces.MetricsRecorder
	locks      *keyedMutex
	minTopUp   int64
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory interfaces.UnitOfWorkFactory, metrics interfaces.MetricsRecorder, minTopUp int64) *WalletService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if minTopUp <= 0 {
		minTopUp = DefaultMinTopUp
	}
	return &WalletService{
		uowFactory: uowFactory,
		metrics:    metrics,
		locks:      newKeyedMutex(),
		minTopUp:   minTopUp,
	}
}

// lockUser serializes wallet mutations for one user within this process
func (s *WalletService) lockUser(userID int64) func() {
	return s.locks.Lock(userID)
}

// Register creates an empty wallet for a new user
func (s *WalletService) Register(ctx context.Context, userID int64) (*entities.Wallet, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.WalletRepository().Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	wallet, err := uow.WalletRepository().Create(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return wallet, nil
}

// Debit removes funds from a user's wallet outside of any auction transaction
func (s *WalletService) Debit(ctx context.Context, userID int64, amount int64, auctionID int64) (*entities.Wallet, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := debitInUnit(ctx, uow, userID, amount, auctionID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.metrics.RecordBalanceTransaction(string(entities.TransactionTypeBid))

	return wallet, nil
}

// Credit adds funds to a user's wallet
func (s *WalletService) Credit(ctx context.Context, userID int64, amount int64, kind entities.CreditKind) (*entities.Wallet, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, _, err := creditInUnit(ctx, uow, userID, amount, kind, nil)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.metrics.RecordBalanceTransaction(string(kind.TransactionType()))

	log.WithFields(log.Fields{
		"userID":     userID,
		"amount":     amount,
		"kind":       kind,
		"newBalance": wallet.Balance,
	}).Info("Wallet credited")

	return wallet, nil
}

// TopUp credits a confirmed deposit
func (s *WalletService) TopUp(ctx context.Context, userID int64, amount int64) (*entities.Wallet, error) {
	if amount < s.minTopUp {
		return nil, fmt.Errorf("%w: minimum top-up is %s", entities.ErrInvalidAmount, utils.FormatMoney(s.minTopUp))
	}
	return s.Credit(ctx, userID, amount, entities.CreditKindTopUp)
}

// Summary returns the wallet together with its loyalty standing
func (s *WalletService) Summary(ctx context.Context, userID int64) (*interfaces.WalletSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet for user %d: %w", userID, entities.ErrNotFound)
	}

	return &interfaces.WalletSummary{
		Wallet: wallet,
		Tier:   wallet.Tier(),
	}, nil
}

// History returns ledger entries, newest first
func (s *WalletService) History(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	history, err := uow.BalanceHistoryRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}

// debitInUnit charges a bid fee inside an open unit of work. The caller must
// hold the user's wallet lock.
func debitInUnit(ctx context.Context, uow interfaces.UnitOfWork, userID, amount, auctionID int64) (*entities.Wallet, error) {
	wallet, err := uow.WalletRepository().Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet for user %d: %w", userID, entities.ErrNotFound)
	}

	history, err := wallet.Debit(amount)
	if err != nil {
		return nil, err
	}
	history.WithRelated(auctionID, entities.RelatedTypeAuction).
		WithMetadata("reference", fmt.Sprintf("Auction #%d", auctionID))

	if err := uow.WalletRepository().Save(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}

	if err := utils.RecordBalanceChange(ctx, uow.BalanceHistoryRepository(), uow.EventBus(), history); err != nil {
		return nil, err
	}

	return wallet, nil
}

// creditInUnit adds funds inside an open unit of work. The caller must hold
// the user's wallet lock. decorate may annotate the ledger entry.
func creditInUnit(ctx context.Context, uow interfaces.UnitOfWork, userID, amount int64, kind entities.CreditKind, decorate func(*entities.BalanceHistory)) (*entities.Wallet, *entities.BalanceHistory, error) {
	wallet, err := uow.WalletRepository().Load(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet == nil {
		return nil, nil, fmt.Errorf("wallet for user %d: %w", userID, entities.ErrNotFound)
	}

	depositBefore := wallet.LifetimeDeposit
	history, err := wallet.Credit(amount, kind)
	if err != nil {
		return nil, nil, err
	}
	if kind != entities.CreditKindTopUp && wallet.LifetimeDeposit != depositBefore {
		return nil, nil, fmt.Errorf("%w: %s credit changed lifetime deposit", entities.ErrInvariantViolation, kind)
	}
	if decorate != nil {
		decorate(history)
	}

	if err := uow.WalletRepository().Save(ctx, wallet); err != nil {
		return nil, nil, fmt.Errorf("failed to save wallet: %w", err)
	}

	if err := utils.RecordBalanceChange(ctx, uow.BalanceHistoryRepository(), uow.EventBus(), history); err != nil {
		return nil, nil, err
	}

	return wallet, history, nil
}
