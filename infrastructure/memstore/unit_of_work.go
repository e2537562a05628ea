package memstore

import (
	"context"
	"fmt"
	"strings"

	"pennybid/domain/entities"
	"pennybid/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// unitOfWork stages writes until Commit
type unitOfWork struct {
	store     *Store
	publisher interfaces.TransactionalEventPublisher
	ctx       context.Context
	started   bool

	users    map[int64]*entities.User
	wallets  map[int64]*entities.Wallet
	auctions map[int64]*entities.Auction
	history  []*entities.BalanceHistory
	bids     []*entities.Bid
	refunds  map[int64]*entities.Refund
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.started {
		return fmt.Errorf("transaction already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.started = true
	u.ctx = ctx
	u.reset()
	return nil
}

func (u *unitOfWork) reset() {
	u.users = make(map[int64]*entities.User)
	u.wallets = make(map[int64]*entities.Wallet)
	u.auctions = make(map[int64]*entities.Auction)
	u.history = nil
	u.bids = nil
	u.refunds = make(map[int64]*entities.Refund)
}

// Commit applies the staged writes and flushes events
func (u *unitOfWork) Commit() error {
	if !u.started {
		return fmt.Errorf("no transaction to commit")
	}
	if err := u.ctx.Err(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s := u.store
	s.mu.Lock()
	for id, user := range u.users {
		for otherID, existing := range s.users {
			if otherID != id && strings.EqualFold(existing.Email, user.Email) {
				s.mu.Unlock()
				return fmt.Errorf("failed to commit transaction: %w", entities.ErrUserExists)
			}
		}
	}
	for id, user := range u.users {
		s.users[id] = user
	}
	for id, wallet := range u.wallets {
		s.wallets[id] = wallet
	}
	for id, auction := range u.auctions {
		s.auctions[id] = auction
	}
	s.history = append(s.history, u.history...)
	s.bids = append(s.bids, u.bids...)
	for id, refund := range u.refunds {
		s.refunds[id] = refund
	}
	s.mu.Unlock()

	u.started = false
	u.reset()

	if u.publisher != nil {
		if err := u.publisher.Flush(u.ctx); err != nil {
			log.WithError(err).Error("Failed to flush events after commit")
		}
	}
	return nil
}

// Rollback drops staged writes and buffered events
func (u *unitOfWork) Rollback() error {
	if !u.started {
		return nil
	}
	u.started = false
	u.reset()

	if u.publisher != nil {
		u.publisher.Discard()
	}
	return nil
}

func (u *unitOfWork) mustBegin() {
	if !u.started {
		panic("unit of work not started - call Begin() first")
	}
}

func (u *unitOfWork) UserRepository() interfaces.UserRepository {
	u.mustBegin()
	return &userRepository{u: u}
}

func (u *unitOfWork) WalletRepository() interfaces.WalletRepository {
	u.mustBegin()
	return &walletRepository{u: u}
}

func (u *unitOfWork) AuctionRepository() interfaces.AuctionRepository {
	u.mustBegin()
	return &auctionRepository{u: u}
}

func (u *unitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	u.mustBegin()
	return &balanceHistoryRepository{u: u}
}

func (u *unitOfWork) BidRepository() interfaces.BidRepository {
	u.mustBegin()
	return &bidRepository{u: u}
}

func (u *unitOfWork) RefundRepository() interfaces.RefundRepository {
	u.mustBegin()
	return &refundRepository{u: u}
}

// EventBus returns the transactional event publisher
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.publisher == nil {
		panic("transactional publisher not configured")
	}
	return u.publisher
}
