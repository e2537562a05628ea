package entities

import "time"

// Bid is one accepted paid bid
type Bid struct {
	ID         int64     `db:"id"`
	AuctionID  int64     `db:"auction_id"`
	UserID     int64     `db:"user_id"`
	Amount     int64     `db:"amount"`
	PriceAfter int64     `db:"price_after"`
	CreatedAt  time.Time `db:"created_at"`
}
