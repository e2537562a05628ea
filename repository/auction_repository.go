package repository

import (
	"context"
	"errors"
	"fmt"

	"pennybid/database"
	"pennybid/domain/entities"

	"github.com/jackc/pgx/v5"
)

const auctionColumns = `id, title, category, retail_price, start_price, current_price, min_price_threshold,
	bid_increment, bid_cost, total_bids, countdown_seconds, reset_seconds, status,
	last_bidder_id, winner_id, closed_at, created_at, updated_at`

// AuctionRepository implements the AuctionRepository interface.
// Participant spend lives in auction_participants.
type AuctionRepository struct {
	q         Queryable
	forUpdate bool
}

// NewAuctionRepository creates a new auction repository on the pool
func NewAuctionRepository(db *database.DB) *AuctionRepository {
	return &AuctionRepository{q: db.Pool}
}

func newAuctionRepositoryWithTx(tx Queryable) *AuctionRepository {
	return &AuctionRepository{q: tx, forUpdate: true}
}

// Create inserts a new listing and sets its ID and timestamps
func (r *AuctionRepository) Create(ctx context.Context, auction *entities.Auction) error {
	query := `
		INSERT INTO auctions (title, category, retail_price, start_price, current_price, min_price_threshold,
			bid_increment, bid_cost, total_bids, countdown_seconds, reset_seconds, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		auction.Title,
		auction.Category,
		auction.RetailPrice,
		auction.StartPrice,
		auction.CurrentPrice,
		auction.MinPriceThreshold,
		auction.BidIncrement,
		auction.BidCost,
		auction.TotalBids,
		auction.CountdownSeconds,
		auction.ResetSeconds,
		auction.Status,
	).Scan(&auction.ID, &auction.CreatedAt, &auction.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create auction %q: %w", auction.Title, err)
	}

	if len(auction.PerUserSpend) > 0 {
		return r.saveParticipants(ctx, auction)
	}
	return nil
}

// Load retrieves an auction with its participant spend. Returns nil if not found.
// Inside a transaction the auction row stays locked until commit.
func (r *AuctionRepository) Load(ctx context.Context, auctionID int64) (*entities.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := r.q.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load auction %d: %w", auctionID, err)
	}
	auction, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[entities.Auction])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load auction %d: %w", auctionID, err)
	}

	spend, err := r.loadParticipants(ctx, []int64{auctionID})
	if err != nil {
		return nil, err
	}
	auction.PerUserSpend = spend[auctionID]
	if auction.PerUserSpend == nil {
		auction.PerUserSpend = make(map[int64]int64)
	}
	return auction, nil
}

// Save persists the auction state and its participant spend
func (r *AuctionRepository) Save(ctx context.Context, auction *entities.Auction) error {
	query := `
		UPDATE auctions
		SET current_price = $2, total_bids = $3, countdown_seconds = $4, status = $5,
			last_bidder_id = $6, winner_id = $7, closed_at = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query,
		auction.ID,
		auction.CurrentPrice,
		auction.TotalBids,
		auction.CountdownSeconds,
		auction.Status,
		auction.LastBidderID,
		auction.WinnerID,
		auction.ClosedAt,
	).Scan(&auction.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("auction %d: %w", auction.ID, entities.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to save auction %d: %w", auction.ID, err)
	}

	return r.saveParticipants(ctx, auction)
}

// ListOpen returns auctions that are not closed, optionally filtered by category
func (r *AuctionRepository) ListOpen(ctx context.Context, category string) ([]*entities.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status <> 'closed' AND ($1 = '' OR category = $1)
		ORDER BY id
	`
	rows, err := r.q.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list open auctions: %w", err)
	}
	auctions, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[entities.Auction])
	if err != nil {
		return nil, fmt.Errorf("failed to collect open auctions: %w", err)
	}
	if len(auctions) == 0 {
		return auctions, nil
	}

	ids := make([]int64, len(auctions))
	for i, a := range auctions {
		ids[i] = a.ID
	}
	spend, err := r.loadParticipants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range auctions {
		a.PerUserSpend = spend[a.ID]
		if a.PerUserSpend == nil {
			a.PerUserSpend = make(map[int64]int64)
		}
	}
	return auctions, nil
}

func (r *AuctionRepository) loadParticipants(ctx context.Context, auctionIDs []int64) (map[int64]map[int64]int64, error) {
	query := `
		SELECT auction_id, user_id, spend
		FROM auction_participants
		WHERE auction_id = ANY($1)
	`
	rows, err := r.q.Query(ctx, query, auctionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query auction participants: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]map[int64]int64)
	for rows.Next() {
		var auctionID, userID, spend int64
		if err := rows.Scan(&auctionID, &userID, &spend); err != nil {
			return nil, fmt.Errorf("failed to scan auction participant: %w", err)
		}
		if out[auctionID] == nil {
			out[auctionID] = make(map[int64]int64)
		}
		out[auctionID][userID] = spend
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auction participants: %w", err)
	}
	return out, nil
}

// saveParticipants upserts every participant's spend in one batch
func (r *AuctionRepository) saveParticipants(ctx context.Context, auction *entities.Auction) error {
	if len(auction.PerUserSpend) == 0 {
		return nil
	}

	query := `
		INSERT INTO auction_participants (auction_id, user_id, spend)
		VALUES ($1, $2, $3)
		ON CONFLICT (auction_id, user_id) DO UPDATE SET spend = EXCLUDED.spend
	`
	batch := &pgx.Batch{}
	for userID, spend := range auction.PerUserSpend {
		batch.Queue(query, auction.ID, userID, spend)
	}

	results := r.q.SendBatch(ctx, batch)
	defer results.Close()
	for range auction.PerUserSpend {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save participants of auction %d: %w", auction.ID, err)
		}
	}
	return nil
}
