package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pennybid/domain/entities"

	"github.com/jackc/pgx/v5"
)

const refundColumns = `id, auction_id, user_id, amount, status, attempts, last_error, created_at, issued_at`

// RefundRepository implements the RefundRepository interface over the refunds outbox
type RefundRepository struct {
	q Queryable
}

func newRefundRepositoryWithTx(tx Queryable) *RefundRepository {
	return &RefundRepository{q: tx}
}

// Enqueue stores pending refunds. The (auction_id, user_id) unique key keeps
// a re-run close from owing anyone twice.
func (r *RefundRepository) Enqueue(ctx context.Context, refunds []*entities.Refund) error {
	query := `
		INSERT INTO refunds (auction_id, user_id, amount, status)
		VALUES ($1, $2, $3, 'pending')
		ON CONFLICT (auction_id, user_id) DO NOTHING
		RETURNING id, created_at
	`
	for _, refund := range refunds {
		err := r.q.QueryRow(ctx, query, refund.AuctionID, refund.UserID, refund.Amount).Scan(&refund.ID, &refund.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to enqueue refund for user %d on auction %d: %w", refund.UserID, refund.AuctionID, err)
		}
		refund.Status = entities.RefundStatusPending
	}
	return nil
}

// GetPending returns up to limit pending refunds, oldest first
func (r *RefundRepository) GetPending(ctx context.Context, limit int) ([]*entities.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE status = 'pending' ORDER BY id LIMIT $1`
	return r.collect(ctx, query, limit)
}

// GetPendingByAuction returns pending refunds for one auction
func (r *RefundRepository) GetPendingByAuction(ctx context.Context, auctionID int64) ([]*entities.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE auction_id = $1 AND status = 'pending' ORDER BY id`
	return r.collect(ctx, query, auctionID)
}

// GetForUpdate retrieves a refund and locks its row. Returns nil if not found.
func (r *RefundRepository) GetForUpdate(ctx context.Context, refundID int64) (*entities.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1 FOR UPDATE`
	rows, err := r.q.Query(ctx, query, refundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get refund %d: %w", refundID, err)
	}
	refund, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[entities.Refund])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refund %d: %w", refundID, err)
	}
	return refund, nil
}

// MarkIssued flags a refund as delivered
func (r *RefundRepository) MarkIssued(ctx context.Context, refundID int64, issuedAt time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE refunds SET status = 'issued', issued_at = $2 WHERE id = $1`, refundID, issuedAt)
	if err != nil {
		return fmt.Errorf("failed to mark refund %d issued: %w", refundID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("refund %d: %w", refundID, entities.ErrNotFound)
	}
	return nil
}

// RecordFailure increments the attempt counter and stores the last error
func (r *RefundRepository) RecordFailure(ctx context.Context, refundID int64, errMsg string) error {
	_, err := r.q.Exec(ctx, `UPDATE refunds SET attempts = attempts + 1, last_error = $2 WHERE id = $1`, refundID, errMsg)
	if err != nil {
		return fmt.Errorf("failed to record refund %d failure: %w", refundID, err)
	}
	return nil
}

func (r *RefundRepository) collect(ctx context.Context, query string, arg any) ([]*entities.Refund, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query refunds: %w", err)
	}
	refunds, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[entities.Refund])
	if err != nil {
		return nil, fmt.Errorf("failed to collect refunds: %w", err)
	}
	return refunds, nil
}
