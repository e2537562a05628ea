package entities

import "time"

// RefundStatus tracks delivery of a refund credit
type RefundStatus string

const (
	RefundStatusPending RefundStatus = "pending"
	RefundStatusIssued  RefundStatus = "issued"
)

// Refund is an outbox row for a losing participant's spend. A row is created
// in the same transaction that closes the auction and stays pending until the
// wallet credit commits.
type Refund struct {
	ID        int64        `db:"id"`
	AuctionID int64        `db:"auction_id"`
	UserID    int64        `db:"user_id"`
	Amount    int64        `db:"amount"`
	Status    RefundStatus `db:"status"`
	Attempts  int          `db:"attempts"`
	LastError *string      `db:"last_error"`
	CreatedAt time.Time    `db:"created_at"`
	IssuedAt  *time.Time   `db:"issued_at"`
}

// IsPending returns true until the credit has been applied
func (r *Refund) IsPending() bool {
	return r.Status == RefundStatusPending
}

// MarkIssued records successful delivery
func (r *Refund) MarkIssued(now time.Time) {
	r.Status = RefundStatusIssued
	issuedAt := now
	r.IssuedAt = &issuedAt
}

// RefundsFromResolution builds pending outbox rows for a closed auction
func RefundsFromResolution(res *AuctionResolution) []*Refund {
	if res == nil {
		return nil
	}
	refunds := make([]*Refund, 0, len(res.Refunds))
	for _, due := range res.Refunds {
		refunds = append(refunds, &Refund{
			AuctionID: res.AuctionID,
			UserID:    due.UserID,
			Amount:    due.Amount,
			Status:    RefundStatusPending,
		})
	}
	return refunds
}
