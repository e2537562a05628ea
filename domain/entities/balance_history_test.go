package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceHistory_Decorators(t *testing.T) {
	t.Parallel()

	h := (&BalanceHistory{TransactionType: TransactionTypeBid}).
		WithRelated(12, RelatedTypeAuction).
		WithMetadata("bid_cost", 50)

	require.NotNil(t, h.RelatedID)
	assert.Equal(t, int64(12), *h.RelatedID)
	assert.Equal(t, RelatedTypeAuction, *h.RelatedType)
	assert.Equal(t, 50, h.TransactionMetadata["bid_cost"])
	assert.Equal(t, "Bid on auction #12", h.GetTransactionDescription())
}

func TestBalanceHistory_ValidateTransaction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entry   BalanceHistory
		wantErr bool
	}{
		{"consistent credit", BalanceHistory{BalanceBefore: 0, BalanceAfter: 100, ChangeAmount: 100}, false},
		{"consistent debit", BalanceHistory{BalanceBefore: 100, BalanceAfter: 50, ChangeAmount: -50}, false},
		{"zero change", BalanceHistory{BalanceBefore: 100, BalanceAfter: 100, ChangeAmount: 0}, true},
		{"inconsistent", BalanceHistory{BalanceBefore: 100, BalanceAfter: 120, ChangeAmount: 10}, true},
		{"negative result", BalanceHistory{BalanceBefore: 10, BalanceAfter: -40, ChangeAmount: -50}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.entry.ValidateTransaction()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateRegistration("a@example.com", "secret", "Alice"))
	assert.Error(t, ValidateRegistration("not-an-email", "secret", "Alice"))
	assert.Error(t, ValidateRegistration("a@example.com", "123", "Alice"))
	assert.Error(t, ValidateRegistration("a@example.com", "secret", ""))
}
