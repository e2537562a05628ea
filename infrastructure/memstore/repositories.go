package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"pennybid/domain/entities"
)

type userRepository struct{ u *unitOfWork }

func (r *userRepository) Create(ctx context.Context, email, name, passwordHash string) (*entities.User, error) {
	if existing, _ := r.GetByEmail(ctx, email); existing != nil {
		return nil, entities.ErrUserExists
	}

	now := r.u.store.now()
	user := &entities.User{
		ID:           r.u.store.nextID("users"),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.u.users[user.ID] = user
	return copyUser(user), nil
}

func (r *userRepository) GetByID(ctx context.Context, userID int64) (*entities.User, error) {
	if user, ok := r.u.users[userID]; ok {
		return copyUser(user), nil
	}

	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[userID]; ok {
		return copyUser(user), nil
	}
	return nil, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	for _, user := range r.u.users {
		if strings.EqualFold(user.Email, email) {
			return copyUser(user), nil
		}
	}

	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return copyUser(user), nil
		}
	}
	return nil, nil
}

type walletRepository struct{ u *unitOfWork }

func (r *walletRepository) Create(ctx context.Context, userID int64) (*entities.Wallet, error) {
	now := r.u.store.now()
	wallet := entities.NewWallet(userID)
	wallet.CreatedAt = now
	wallet.UpdatedAt = now
	r.u.wallets[userID] = wallet
	return wallet.Clone(), nil
}

func (r *walletRepository) Load(ctx context.Context, userID int64) (*entities.Wallet, error) {
	if wallet, ok := r.u.wallets[userID]; ok {
		return wallet.Clone(), nil
	}

	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if wallet, ok := s.wallets[userID]; ok {
		return wallet.Clone(), nil
	}
	return nil, nil
}

func (r *walletRepository) Save(ctx context.Context, wallet *entities.Wallet) error {
	c := wallet.Clone()
	c.UpdatedAt = r.u.store.now()
	r.u.wallets[wallet.UserID] = c
	return nil
}

type auctionRepository struct{ u *unitOfWork }

func (r *auctionRepository) Create(ctx context.Context, auction *entities.Auction) error {
	now := r.u.store.now()
	auction.ID = r.u.store.nextID("auctions")
	if auction.CreatedAt.IsZero() {
		auction.CreatedAt = now
	}
	auction.UpdatedAt = auction.CreatedAt
	r.u.auctions[auction.ID] = auction.Clone()
	return nil
}

func (r *auctionRepository) Load(ctx context.Context, auctionID int64) (*entities.Auction, error) {
	if auction, ok := r.u.auctions[auctionID]; ok {
		return auction.Clone(), nil
	}

	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if auction, ok := s.auctions[auctionID]; ok {
		return auction.Clone(), nil
	}
	return nil, nil
}

func (r *auctionRepository) Save(ctx context.Context, auction *entities.Auction) error {
	c := auction.Clone()
	c.UpdatedAt = r.u.store.now()
	r.u.auctions[auction.ID] = c
	return nil
}

func (r *auctionRepository) ListOpen(ctx context.Context, category string) ([]*entities.Auction, error) {
	merged := make(map[int64]*entities.Auction)

	s := r.u.store
	s.mu.RLock()
	for id, auction := range s.auctions {
		merged[id] = auction
	}
	s.mu.RUnlock()
	for id, auction := range r.u.auctions {
		merged[id] = auction
	}

	out := make([]*entities.Auction, 0, len(merged))
	for _, auction := range merged {
		if auction.IsClosed() {
			continue
		}
		if category != "" && auction.Category != category {
			continue
		}
		out = append(out, auction.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type balanceHistoryRepository struct{ u *unitOfWork }

func (r *balanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	history.ID = r.u.store.nextID("balance_history")
	history.CreatedAt = r.u.store.now()
	r.u.history = append(r.u.history, copyHistory(history))
	return nil
}

func (r *balanceHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error) {
	var all []*entities.BalanceHistory

	s := r.u.store
	s.mu.RLock()
	for _, h := range s.history {
		if h.UserID == userID {
			all = append(all, copyHistory(h))
		}
	}
	s.mu.RUnlock()
	for _, h := range r.u.history {
		if h.UserID == userID {
			all = append(all, copyHistory(h))
		}
	}

	// newest first
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

type bidRepository struct{ u *unitOfWork }

func (r *bidRepository) Record(ctx context.Context, bid *entities.Bid) error {
	bid.ID = r.u.store.nextID("bids")
	if bid.CreatedAt.IsZero() {
		bid.CreatedAt = r.u.store.now()
	}
	c := *bid
	r.u.bids = append(r.u.bids, &c)
	return nil
}

func (r *bidRepository) GetByAuction(ctx context.Context, auctionID int64, limit int) ([]*entities.Bid, error) {
	var all []*entities.Bid

	s := r.u.store
	s.mu.RLock()
	for _, b := range s.bids {
		if b.AuctionID == auctionID {
			c := *b
			all = append(all, &c)
		}
	}
	s.mu.RUnlock()
	for _, b := range r.u.bids {
		if b.AuctionID == auctionID {
			c := *b
			all = append(all, &c)
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

type refundRepository struct{ u *unitOfWork }

func (r *refundRepository) Enqueue(ctx context.Context, refunds []*entities.Refund) error {
	existing := r.all()
	for _, refund := range refunds {
		duplicate := false
		for _, e := range existing {
			if e.AuctionID == refund.AuctionID && e.UserID == refund.UserID {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		refund.ID = r.u.store.nextID("refunds")
		refund.Status = entities.RefundStatusPending
		refund.CreatedAt = r.u.store.now()
		c := copyRefund(refund)
		r.u.refunds[refund.ID] = c
		existing = append(existing, c)
	}
	return nil
}

func (r *refundRepository) GetPending(ctx context.Context, limit int) ([]*entities.Refund, error) {
	var out []*entities.Refund
	for _, refund := range r.all() {
		if refund.IsPending() {
			out = append(out, refund)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *refundRepository) GetPendingByAuction(ctx context.Context, auctionID int64) ([]*entities.Refund, error) {
	var out []*entities.Refund
	for _, refund := range r.all() {
		if refund.AuctionID == auctionID && refund.IsPending() {
			out = append(out, refund)
		}
	}
	return out, nil
}

func (r *refundRepository) GetForUpdate(ctx context.Context, refundID int64) (*entities.Refund, error) {
	if refund, ok := r.u.refunds[refundID]; ok {
		return copyRefund(refund), nil
	}

	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if refund, ok := s.refunds[refundID]; ok {
		return copyRefund(refund), nil
	}
	return nil, nil
}

func (r *refundRepository) MarkIssued(ctx context.Context, refundID int64, issuedAt time.Time) error {
	refund, err := r.GetForUpdate(ctx, refundID)
	if err != nil {
		return err
	}
	if refund == nil {
		return entities.ErrNotFound
	}
	refund.MarkIssued(issuedAt)
	r.u.refunds[refundID] = refund
	return nil
}

func (r *refundRepository) RecordFailure(ctx context.Context, refundID int64, errMsg string) error {
	refund, err := r.GetForUpdate(ctx, refundID)
	if err != nil {
		return err
	}
	if refund == nil {
		return entities.ErrNotFound
	}
	refund.Attempts++
	refund.LastError = &errMsg
	r.u.refunds[refundID] = refund
	return nil
}

// all merges committed and staged refunds, oldest first
func (r *refundRepository) all() []*entities.Refund {
	merged := make(map[int64]*entities.Refund)

	s := r.u.store
	s.mu.RLock()
	for id, refund := range s.refunds {
		merged[id] = refund
	}
	s.mu.RUnlock()
	for id, refund := range r.u.refunds {
		merged[id] = refund
	}

	out := make([]*entities.Refund, 0, len(merged))
	for _, refund := range merged {
		out = append(out, copyRefund(refund))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
