package events

import "pennybid/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeUserCreated   EventType = "user_created"
	EventTypeAuctionOpened EventType = "auction_opened"
	EventTypeBidPlaced     EventType = "bid_placed"
	EventTypeAuctionLocked EventType = "auction_locked"
	EventTypeAuctionClosed EventType = "auction_closed"
	EventTypeRefundIssued  EventType = "refund_issued"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64                    `json:"user_id"`
	OldBalance      int64                    `json:"old_balance"`
	NewBalance      int64                    `json:"new_balance"`
	TransactionType entities.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                    `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new registration
type UserCreatedEvent struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// AuctionOpenedEvent is emitted when a listing starts accepting bids
type AuctionOpenedEvent struct {
	AuctionID    int64  `json:"auction_id"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	StartPrice   int64  `json:"start_price"`
	ResetSeconds int    `json:"reset_seconds"`
}

func (e AuctionOpenedEvent) Type() EventType {
	return EventTypeAuctionOpened
}

// BidPlacedEvent is emitted for every accepted bid
type BidPlacedEvent struct {
	AuctionID        int64 `json:"auction_id"`
	UserID           int64 `json:"user_id"`
	CurrentPrice     int64 `json:"current_price"`
	TotalBids        int64 `json:"total_bids"`
	CountdownSeconds int   `json:"countdown_seconds"`
}

func (e BidPlacedEvent) Type() EventType {
	return EventTypeBidPlaced
}

// AuctionLockedEvent is emitted when an auction stops admitting new bidders
type AuctionLockedEvent struct {
	AuctionID    int64 `json:"auction_id"`
	CurrentPrice int64 `json:"current_price"`
	Participants int   `json:"participants"`
}

func (e AuctionLockedEvent) Type() EventType {
	return EventTypeAuctionLocked
}

// AuctionClosedEvent is emitted once when an auction is resolved
type AuctionClosedEvent struct {
	AuctionID  int64  `json:"auction_id"`
	WinnerID   *int64 `json:"winner_id,omitempty"`
	FinalPrice int64  `json:"final_price"`
}

func (e AuctionClosedEvent) Type() EventType {
	return EventTypeAuctionClosed
}

// RefundIssuedEvent is emitted when a losing participant's spend is credited back
type RefundIssuedEvent struct {
	RefundID  int64 `json:"refund_id"`
	AuctionID int64 `json:"auction_id"`
	UserID    int64 `json:"user_id"`
	Amount    int64 `json:"amount"`
}

func (e RefundIssuedEvent) Type() EventType {
	return EventTypeRefundIssued
}
