package entities

import (
	"fmt"
	"time"
)

// Wallet holds the spendable balance and cumulative deposits of one user
type Wallet struct {
	UserID          int64     `db:"user_id"`
	Balance         int64     `db:"balance"`
	LifetimeDeposit int64     `db:"lifetime_deposit"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// NewWallet creates an empty wallet for a newly registered user
func NewWallet(userID int64) *Wallet {
	return &Wallet{UserID: userID}
}

// CanAfford checks if the wallet has sufficient balance for an amount
func (w *Wallet) CanAfford(amount int64) bool {
	return w.Balance >= amount
}

// Debit removes amount from the balance. Lifetime deposits are untouched.
func (w *Wallet) Debit(amount int64) (*BalanceHistory, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !w.CanAfford(amount) {
		return nil, fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, w.Balance, amount)
	}

	before := w.Balance
	w.Balance -= amount

	return &BalanceHistory{
		UserID:          w.UserID,
		BalanceBefore:   before,
		BalanceAfter:    w.Balance,
		ChangeAmount:    -amount,
		TransactionType: TransactionTypeBid,
	}, nil
}

// Credit adds amount to the balance. Only top-ups raise the lifetime deposit.
func (w *Wallet) Credit(amount int64, kind CreditKind) (*BalanceHistory, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown credit kind %q", kind)
	}

	before := w.Balance
	w.Balance += amount
	if kind == CreditKindTopUp {
		w.LifetimeDeposit += amount
	}

	return &BalanceHistory{
		UserID:          w.UserID,
		BalanceBefore:   before,
		BalanceAfter:    w.Balance,
		ChangeAmount:    amount,
		TransactionType: kind.TransactionType(),
	}, nil
}

// Tier returns the loyalty standing derived from lifetime deposits
func (w *Wallet) Tier() TierStatus {
	return TierFor(w.LifetimeDeposit)
}

// Clone returns a copy of the wallet
func (w *Wallet) Clone() *Wallet {
	c := *w
	return &c
}
