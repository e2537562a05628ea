package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallet_Debit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		balance     int64
		amount      int64
		wantErr     error
		wantBalance int64
	}{
		{"exact balance", 100, 100, nil, 0},
		{"partial", 100, 50, nil, 50},
		{"insufficient", 49, 50, ErrInsufficientFunds, 49},
		{"zero amount", 100, 0, ErrInvalidAmount, 100},
		{"negative amount", 100, -5, ErrInvalidAmount, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := &Wallet{UserID: 1, Balance: tt.balance, LifetimeDeposit: 500}
			entry, err := w.Debit(tt.amount)

			assert.Equal(t, tt.wantBalance, w.Balance)
			assert.Equal(t, int64(500), w.LifetimeDeposit, "debits never touch lifetime deposits")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, entry)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TransactionTypeBid, entry.TransactionType)
			assert.Equal(t, -tt.amount, entry.ChangeAmount)
			assert.Equal(t, tt.balance, entry.BalanceBefore)
			assert.NoError(t, entry.ValidateTransaction())
		})
	}
}

func TestWallet_Credit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		kind         CreditKind
		wantLifetime int64
		wantType     TransactionType
	}{
		{"top-up raises lifetime deposit", CreditKindTopUp, 300, TransactionTypeTopUp},
		{"refund does not", CreditKindRefund, 200, TransactionTypeRefund},
		{"bonus does not", CreditKindBonus, 200, TransactionTypeBonus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := &Wallet{UserID: 1, Balance: 50, LifetimeDeposit: 200}
			entry, err := w.Credit(100, tt.kind)
			require.NoError(t, err)

			assert.Equal(t, int64(150), w.Balance)
			assert.Equal(t, tt.wantLifetime, w.LifetimeDeposit)
			assert.Equal(t, tt.wantType, entry.TransactionType)
			assert.True(t, entry.IsPositiveChange())
			assert.NoError(t, entry.ValidateTransaction())
		})
	}
}

func TestWallet_CreditRejects(t *testing.T) {
	t.Parallel()

	w := NewWallet(1)

	_, err := w.Credit(0, CreditKindTopUp)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = w.Credit(10, CreditKind("gift"))
	assert.Error(t, err)

	assert.Equal(t, int64(0), w.Balance)
	assert.Equal(t, int64(0), w.LifetimeDeposit)
}

func TestWallet_Tier(t *testing.T) {
	t.Parallel()

	w := &Wallet{Balance: 0, LifetimeDeposit: 60000}
	assert.Equal(t, "Noble", w.Tier().Current.Name)
}
