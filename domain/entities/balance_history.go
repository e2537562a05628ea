package entities

import (
	"errors"
	"strconv"
	"time"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeAuction RelatedType = "auction"
	RelatedTypeRefund  RelatedType = "refund"
)

// BalanceHistory is one immutable ledger entry for a wallet mutation
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	UserID              int64           `db:"user_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}

// WithRelated links the entry to the entity that caused it
func (bh *BalanceHistory) WithRelated(id int64, relatedType RelatedType) *BalanceHistory {
	bh.RelatedID = &id
	bh.RelatedType = &relatedType
	return bh
}

// WithMetadata attaches a metadata key to the entry
func (bh *BalanceHistory) WithMetadata(key string, value any) *BalanceHistory {
	if bh.TransactionMetadata == nil {
		bh.TransactionMetadata = make(map[string]any)
	}
	bh.TransactionMetadata[key] = value
	return bh
}

// IsPositiveChange returns true if the change amount is positive
func (bh *BalanceHistory) IsPositiveChange() bool {
	return bh.ChangeAmount > 0
}

// GetTransactionDescription returns a human-readable description of the transaction
func (bh *BalanceHistory) GetTransactionDescription() string {
	switch bh.TransactionType {
	case TransactionTypeBid:
		if bh.RelatedID != nil {
			return "Bid on auction #" + strconv.FormatInt(*bh.RelatedID, 10)
		}
		return "Bid"
	case TransactionTypeRefund:
		return "Auction refund"
	case TransactionTypeTopUp:
		return "Top-up"
	case TransactionTypeBonus:
		return "Bonus"
	default:
		return string(bh.TransactionType)
	}
}

// ValidateTransaction performs basic validation on the transaction
func (bh *BalanceHistory) ValidateTransaction() error {
	if bh.ChangeAmount == 0 {
		return errors.New("change amount cannot be zero")
	}

	if bh.BalanceAfter != bh.BalanceBefore+bh.ChangeAmount {
		return errors.New("balance calculation is inconsistent")
	}

	if bh.BalanceAfter < 0 {
		return errors.New("balance cannot go negative")
	}

	return nil
}
