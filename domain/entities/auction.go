package entities

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus represents the lifecycle state of an auction
type AuctionStatus string

const (
	AuctionStatusOpen   AuctionStatus = "open"
	AuctionStatusLocked AuctionStatus = "locked"
	AuctionStatusClosed AuctionStatus = "closed"
)

// IsValid reports whether the status is a known state
func (s AuctionStatus) IsValid() bool {
	return s == AuctionStatusOpen || s == AuctionStatusLocked || s == AuctionStatusClosed
}

// rank orders statuses so transitions can be checked for direction
func (s AuctionStatus) rank() int {
	switch s {
	case AuctionStatusOpen:
		return 0
	case AuctionStatusLocked:
		return 1
	case AuctionStatusClosed:
		return 2
	}
	return -1
}

// CanTransitionTo returns true if moving from s to next goes forward
func (s AuctionStatus) CanTransitionTo(next AuctionStatus) bool {
	return s.IsValid() && next.IsValid() && next.rank() > s.rank()
}

// Auction is the live bidding state of one lot
type Auction struct {
	ID                int64         `db:"id"`
	Title             string        `db:"title"`
	Category          string        `db:"category"`
	RetailPrice       int64         `db:"retail_price"`
	StartPrice        int64         `db:"start_price"`
	CurrentPrice      int64         `db:"current_price"`
	MinPriceThreshold int64         `db:"min_price_threshold"`
	BidIncrement      int64         `db:"bid_increment"`
	BidCost           int64         `db:"bid_cost"`
	TotalBids         int64         `db:"total_bids"`
	CountdownSeconds  int           `db:"countdown_seconds"`
	ResetSeconds      int           `db:"reset_seconds"`
	Status            AuctionStatus `db:"status"`
	LastBidderID      *int64        `db:"last_bidder_id"`
	WinnerID          *int64        `db:"winner_id"`
	ClosedAt          *time.Time    `db:"closed_at"`
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at"`

	// PerUserSpend maps user id to the total bid fees paid on this auction.
	// Stored in auction_participants.
	PerUserSpend map[int64]int64 `db:"-"`
}

// AuctionParams describes a new listing
type AuctionParams struct {
	Title             string
	Category          string
	RetailPrice       int64
	StartPrice        int64
	MinPriceThreshold int64
	BidIncrement      int64
	BidCost           int64
	ResetSeconds      int
}

// NewAuction builds an open auction with a full countdown
func NewAuction(p AuctionParams) (*Auction, error) {
	a := &Auction{
		Title:             p.Title,
		Category:          p.Category,
		RetailPrice:       p.RetailPrice,
		StartPrice:        p.StartPrice,
		CurrentPrice:      p.StartPrice,
		MinPriceThreshold: p.MinPriceThreshold,
		BidIncrement:      p.BidIncrement,
		BidCost:           p.BidCost,
		CountdownSeconds:  p.ResetSeconds,
		ResetSeconds:      p.ResetSeconds,
		Status:            AuctionStatusOpen,
		PerUserSpend:      make(map[int64]int64),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks listing parameters
func (a *Auction) Validate() error {
	switch {
	case a.Title == "":
		return errors.New("title is required")
	case a.ResetSeconds <= 0:
		return errors.New("reset seconds must be positive")
	case a.BidIncrement <= 0:
		return errors.New("bid increment must be positive")
	case a.BidCost <= 0:
		return errors.New("bid cost must be positive")
	case a.StartPrice < 0:
		return errors.New("start price cannot be negative")
	case a.RetailPrice < 0:
		return errors.New("retail price cannot be negative")
	case a.MinPriceThreshold <= a.StartPrice:
		return errors.New("lock threshold must be above the start price")
	}
	return nil
}

// IsClosed returns true once the auction has been resolved
func (a *Auction) IsClosed() bool {
	return a.Status == AuctionStatusClosed
}

// IsLocked returns true while only existing participants may bid
func (a *Auction) IsLocked() bool {
	return a.Status == AuctionStatusLocked
}

// IsParticipant returns true if the user has paid for at least one bid
func (a *Auction) IsParticipant(userID int64) bool {
	_, ok := a.PerUserSpend[userID]
	return ok
}

// ParticipantCount returns the number of distinct bidders
func (a *Auction) ParticipantCount() int {
	return len(a.PerUserSpend)
}

// Participant is one bidder's total fee spend on an auction
type Participant struct {
	UserID int64
	Spend  int64
}

// Participants returns the bidders ordered by spend, highest first
func (a *Auction) Participants() []Participant {
	out := make([]Participant, 0, len(a.PerUserSpend))
	for userID, spend := range a.PerUserSpend {
		out = append(out, Participant{UserID: userID, Spend: spend})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Spend != out[j].Spend {
			return out[i].Spend > out[j].Spend
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// CheckEligibility reports whether userID may bid right now
func (a *Auction) CheckEligibility(userID int64) error {
	if a.IsClosed() {
		return ErrAuctionClosed
	}
	if a.IsLocked() && !a.IsParticipant(userID) {
		return ErrNotEligible
	}
	return nil
}

// ApplyBid records a paid bid by userID. The caller has already debited the
// bid cost. Returns true when this bid moved the auction into the locked state.
func (a *Auction) ApplyBid(userID int64, now time.Time) (bool, error) {
	if err := a.CheckEligibility(userID); err != nil {
		return false, err
	}

	prevPrice := a.CurrentPrice

	if a.PerUserSpend == nil {
		a.PerUserSpend = make(map[int64]int64)
	}
	a.CurrentPrice += a.BidIncrement
	a.TotalBids++
	a.PerUserSpend[userID] += a.BidCost
	a.CountdownSeconds = a.ResetSeconds
	bidder := userID
	a.LastBidderID = &bidder
	a.UpdatedAt = now

	locked := false
	if !a.IsLocked() && a.CurrentPrice >= a.MinPriceThreshold {
		if !a.Status.CanTransitionTo(AuctionStatusLocked) {
			return false, fmt.Errorf("%w: cannot lock auction in status %q", ErrInvariantViolation, a.Status)
		}
		a.Status = AuctionStatusLocked
		locked = true
	}

	if a.CurrentPrice <= prevPrice {
		return false, fmt.Errorf("%w: price moved from %d to %d", ErrInvariantViolation, prevPrice, a.CurrentPrice)
	}
	if err := a.CheckInvariants(); err != nil {
		return false, err
	}

	return locked, nil
}

// Tick advances the countdown by one second. It returns true when the
// countdown has run out and the auction is due for resolution.
func (a *Auction) Tick(now time.Time) (bool, error) {
	if a.IsClosed() {
		return false, nil
	}
	if a.CountdownSeconds > 0 {
		a.CountdownSeconds--
		a.UpdatedAt = now
	}
	if err := a.CheckInvariants(); err != nil {
		return false, err
	}
	return a.CountdownSeconds == 0, nil
}

// RefundDue is a bid spend owed back to a losing participant
type RefundDue struct {
	UserID int64
	Amount int64
}

// AuctionResolution is the outcome of closing an auction
type AuctionResolution struct {
	AuctionID  int64
	WinnerID   *int64
	FinalPrice int64
	Refunds    []RefundDue
}

// Close resolves the auction. The last successful bidder wins and every other
// participant is owed their spend. Returns nil if already closed.
func (a *Auction) Close(now time.Time) (*AuctionResolution, error) {
	if a.IsClosed() {
		return nil, nil
	}
	if !a.Status.CanTransitionTo(AuctionStatusClosed) {
		return nil, fmt.Errorf("%w: cannot close auction in status %q", ErrInvariantViolation, a.Status)
	}

	a.Status = AuctionStatusClosed
	a.CountdownSeconds = 0
	a.WinnerID = a.LastBidderID
	closedAt := now
	a.ClosedAt = &closedAt
	a.UpdatedAt = now

	resolution := &AuctionResolution{
		AuctionID:  a.ID,
		WinnerID:   a.WinnerID,
		FinalPrice: a.CurrentPrice,
	}

	userIDs := make([]int64, 0, len(a.PerUserSpend))
	for userID := range a.PerUserSpend {
		userIDs = append(userIDs, userID)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	for _, userID := range userIDs {
		if a.WinnerID != nil && *a.WinnerID == userID {
			continue
		}
		if spend := a.PerUserSpend[userID]; spend > 0 {
			resolution.Refunds = append(resolution.Refunds, RefundDue{UserID: userID, Amount: spend})
		}
	}

	return resolution, nil
}

// CheckInvariants verifies the aggregate is internally consistent
func (a *Auction) CheckInvariants() error {
	if !a.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvariantViolation, a.Status)
	}
	if a.CountdownSeconds < 0 || a.CountdownSeconds > a.ResetSeconds {
		return fmt.Errorf("%w: countdown %d outside [0, %d]", ErrInvariantViolation, a.CountdownSeconds, a.ResetSeconds)
	}
	if want := a.StartPrice + a.TotalBids*a.BidIncrement; a.CurrentPrice != want {
		return fmt.Errorf("%w: price %d, expected %d after %d bids", ErrInvariantViolation, a.CurrentPrice, want, a.TotalBids)
	}
	var spent int64
	for _, s := range a.PerUserSpend {
		spent += s
	}
	if spent != a.TotalBids*a.BidCost {
		return fmt.Errorf("%w: participant spend %d does not match %d bids", ErrInvariantViolation, spent, a.TotalBids)
	}
	return nil
}

// Discount is the whole-percent saving of the current price against retail
func (a *Auction) Discount() int64 {
	if a.RetailPrice <= 0 {
		return 0
	}
	ratio := decimal.NewFromInt(a.CurrentPrice).Div(decimal.NewFromInt(a.RetailPrice))
	return decimal.NewFromInt(1).Sub(ratio).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Clone returns a deep copy safe to hand outside the engine
func (a *Auction) Clone() *Auction {
	c := *a
	c.PerUserSpend = make(map[int64]int64, len(a.PerUserSpend))
	for k, v := range a.PerUserSpend {
		c.PerUserSpend[k] = v
	}
	if a.LastBidderID != nil {
		v := *a.LastBidderID
		c.LastBidderID = &v
	}
	if a.WinnerID != nil {
		v := *a.WinnerID
		c.WinnerID = &v
	}
	if a.ClosedAt != nil {
		v := *a.ClosedAt
		c.ClosedAt = &v
	}
	return &c
}
