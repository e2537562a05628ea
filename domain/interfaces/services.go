package interfaces

import (
	"context"
	"time"

	"pennybid/domain/entities"
)

// IdentityProvider resolves the user behind the current call
type IdentityProvider interface {
	// CurrentUserID returns entities.ErrUnauthenticated when no valid identity is present
	CurrentUserID(ctx context.Context) (int64, error)
}

// Ticker delivers ticks until stopped
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock supplies time and tick sources
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// WalletSummary is a wallet together with its loyalty standing
type WalletSummary struct {
	Wallet *entities.Wallet
	Tier   entities.TierStatus
}

// WalletService defines the interface for wallet operations
type WalletService interface {
	// Register creates an empty wallet for a new user
	Register(ctx context.Context, userID int64) (*entities.Wallet, error)

	// Debit removes funds, failing with entities.ErrInsufficientFunds
	Debit(ctx context.Context, userID int64, amount int64, auctionID int64) (*entities.Wallet, error)

	// Credit adds funds. Only CreditKindTopUp raises the lifetime deposit.
	Credit(ctx context.Context, userID int64, amount int64, kind entities.CreditKind) (*entities.Wallet, error)

	// TopUp credits a confirmed deposit, enforcing the minimum amount
	TopUp(ctx context.Context, userID int64, amount int64) (*entities.Wallet, error)

	// Summary returns the wallet with its loyalty tier
	Summary(ctx context.Context, userID int64) (*WalletSummary, error)

	// History returns ledger entries, newest first
	History(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error)
}

// BiddingEngine defines the interface for bid and countdown handling
type BiddingEngine interface {
	// CreateAuction publishes a new listing
	CreateAuction(ctx context.Context, params entities.AuctionParams) (*entities.Auction, error)

	// PlaceBid attempts a paid bid and returns the updated auction snapshot
	PlaceBid(ctx context.Context, auctionID, userID int64) (*entities.Auction, error)

	// Tick advances one auction's countdown by one second, resolving it on expiry.
	// Returns the snapshot after the tick.
	Tick(ctx context.Context, auctionID int64) (*entities.Auction, error)

	// Get returns a snapshot of one auction
	Get(ctx context.Context, auctionID int64) (*entities.Auction, error)

	// ListOpen returns snapshots of auctions still accepting bids
	ListOpen(ctx context.Context, category string) ([]*entities.Auction, error)

	// RecentBids returns the latest accepted bids on an auction, newest first
	RecentBids(ctx context.Context, auctionID int64, limit int) ([]*entities.Bid, error)
}

// RefundService delivers refunds owed by closed auctions
type RefundService interface {
	// IssueRefunds credits every pending refund of one auction
	IssueRefunds(ctx context.Context, auctionID int64) error

	// ProcessPending credits up to limit pending refunds across all auctions
	ProcessPending(ctx context.Context, limit int) (issued int, err error)
}

// AuthService handles registration and sign-in
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*entities.User, error)
	Login(ctx context.Context, email, password string) (token string, err error)
	Me(ctx context.Context) (*entities.User, error)
}

// TokenIssuer mints bearer tokens for authenticated users
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// MetricsRecorder receives engine measurements
type MetricsRecorder interface {
	RecordBidAccepted()
	RecordBidRejected(reason string)
	UpdateActiveAuctions(delta int64)
	RecordAuctionClosed()
	RecordRefundIssued(amount int64)
	RecordRefundFailed()
	RecordBalanceTransaction(transactionType string)
	RecordInvariantViolation(operation string)
	RecordTickDuration(d time.Duration)
}
