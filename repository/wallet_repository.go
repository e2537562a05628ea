package repository

import (
	"context"
	"errors"
	"fmt"

	"pennybid/database"
	"pennybid/domain/entities"

	"github.com/jackc/pgx/v5"
)

const walletColumns = `user_id, balance, lifetime_deposit, created_at, updated_at`

// WalletRepository implements the WalletRepository interface
type WalletRepository struct {
	q Queryable
	// forUpdate locks loaded rows; only meaningful inside a transaction
	forUpdate bool
}

// NewWalletRepository creates a new wallet repository on the pool
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

func newWalletRepositoryWithTx(tx Queryable) *WalletRepository {
	return &WalletRepository{q: tx, forUpdate: true}
}

// Create creates an empty wallet, or returns the existing one
func (r *WalletRepository) Create(ctx context.Context, userID int64) (*entities.Wallet, error) {
	query := `
		INSERT INTO wallets (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = wallets.updated_at
		RETURNING ` + walletColumns

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet for user %d: %w", userID, err)
	}
	wallet, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[entities.Wallet])
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet for user %d: %w", userID, err)
	}
	return wallet, nil
}

// Load retrieves a wallet. Returns nil if the user has none.
func (r *WalletRepository) Load(ctx context.Context, userID int64) (*entities.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet for user %d: %w", userID, err)
	}
	wallet, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[entities.Wallet])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet for user %d: %w", userID, err)
	}
	return wallet, nil
}

// Save persists balance and lifetime deposit
func (r *WalletRepository) Save(ctx context.Context, wallet *entities.Wallet) error {
	query := `
		UPDATE wallets
		SET balance = $2, lifetime_deposit = $3, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query, wallet.UserID, wallet.Balance, wallet.LifetimeDeposit).Scan(&wallet.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("wallet for user %d: %w", wallet.UserID, entities.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to save wallet for user %d: %w", wallet.UserID, err)
	}
	return nil
}
