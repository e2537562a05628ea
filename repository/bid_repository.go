package repository

import (
	"context"
	"fmt"

	"pennybid/domain/entities"

	"github.com/jackc/pgx/v5"
)

// BidRepository implements the BidRepository interface
type BidRepository struct {
	q Queryable
}

func newBidRepositoryWithTx(tx Queryable) *BidRepository {
	return &BidRepository{q: tx}
}

// Record stores an accepted bid
func (r *BidRepository) Record(ctx context.Context, bid *entities.Bid) error {
	query := `
		INSERT INTO bids (auction_id, user_id, amount, price_after, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err := r.q.QueryRow(ctx, query, bid.AuctionID, bid.UserID, bid.Amount, bid.PriceAfter, bid.CreatedAt).Scan(&bid.ID); err != nil {
		return fmt.Errorf("failed to record bid on auction %d: %w", bid.AuctionID, err)
	}
	return nil
}

// GetByAuction returns the most recent bids on an auction, newest first
func (r *BidRepository) GetByAuction(ctx context.Context, auctionID int64, limit int) ([]*entities.Bid, error) {
	query := `
		SELECT id, auction_id, user_id, amount, price_after, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, query, auctionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	bids, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[entities.Bid])
	if err != nil {
		return nil, fmt.Errorf("failed to collect bids: %w", err)
	}
	return bids, nil
}
