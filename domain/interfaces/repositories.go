package interfaces

import (
	"context"
	"time"

	"pennybid/domain/entities"
	"pennybid/domain/events"
)

// WalletRepository defines the interface for wallet persistence
type WalletRepository interface {
	// Create creates an empty wallet for a user
	Create(ctx context.Context, userID int64) (*entities.Wallet, error)

	// Load retrieves a wallet. Returns nil if the user has none.
	// Inside a transaction the row stays locked until commit.
	Load(ctx context.Context, userID int64) (*entities.Wallet, error)

	// Save persists balance and lifetime deposit
	Save(ctx context.Context, wallet *entities.Wallet) error
}

// AuctionRepository is the auction catalog store
type AuctionRepository interface {
	// Create inserts a new listing and sets its ID and timestamps
	Create(ctx context.Context, auction *entities.Auction) error

	// Load retrieves an auction with its participant spend. Returns nil if not found.
	Load(ctx context.Context, auctionID int64) (*entities.Auction, error)

	// Save persists the auction state and its participant spend
	Save(ctx context.Context, auction *entities.Auction) error

	// ListOpen returns auctions that are not closed, optionally filtered by category
	ListOpen(ctx context.Context, category string) ([]*entities.Auction, error)
}

// BalanceHistoryRepository is the append-only wallet ledger
type BalanceHistoryRepository interface {
	Record(ctx context.Context, history *entities.BalanceHistory) error
	GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error)
}

// BidRepository records accepted bids
type BidRepository interface {
	Record(ctx context.Context, bid *entities.Bid) error
	GetByAuction(ctx context.Context, auctionID int64, limit int) ([]*entities.Bid, error)
}

// RefundRepository is the refund outbox
type RefundRepository interface {
	// Enqueue stores pending refunds. Rows that already exist for the same
	// auction and user are left untouched.
	Enqueue(ctx context.Context, refunds []*entities.Refund) error

	// GetPending returns up to limit pending refunds, oldest first
	GetPending(ctx context.Context, limit int) ([]*entities.Refund, error)

	// GetPendingByAuction returns pending refunds for one auction
	GetPendingByAuction(ctx context.Context, auctionID int64) ([]*entities.Refund, error)

	// GetForUpdate retrieves a refund and locks it. Returns nil if not found.
	GetForUpdate(ctx context.Context, refundID int64) (*entities.Refund, error)

	// MarkIssued flags a refund as delivered
	MarkIssued(ctx context.Context, refundID int64, issuedAt time.Time) error

	// RecordFailure increments the attempt counter and stores the last error
	RecordFailure(ctx context.Context, refundID int64, errMsg string) error
}

// UserRepository defines the interface for registered users
type UserRepository interface {
	Create(ctx context.Context, email, name, passwordHash string) (*entities.User, error)
	GetByID(ctx context.Context, userID int64) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher holds events until the surrounding transaction settles
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}
