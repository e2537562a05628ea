// Package memstore keeps all state in process memory. It backs STORE_DRIVER=memory
// and the service tests. Writes are staged per unit of work and applied on commit.
// There are no row locks: callers rely on the services' per-auction and per-user
// serialization, which is the only writer path.
package memstore

import (
	"sort"
	"sync"
	"time"

	"pennybid/domain/entities"
	"pennybid/domain/interfaces"
)

// Store holds committed state
type Store struct {
	mu sync.RWMutex

	users    map[int64]*entities.User
	wallets  map[int64]*entities.Wallet
	auctions map[int64]*entities.Auction
	history  []*entities.BalanceHistory
	bids     []*entities.Bid
	refunds  map[int64]*entities.Refund

	seqMu sync.Mutex
	seq   map[string]int64

	now func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:    make(map[int64]*entities.User),
		wallets:  make(map[int64]*entities.Wallet),
		auctions: make(map[int64]*entities.Auction),
		refunds:  make(map[int64]*entities.Refund),
		seq:      make(map[string]int64),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock makes the store stamp rows from clock
func (s *Store) WithClock(clock interfaces.Clock) *Store {
	s.now = clock.Now
	return s
}

// nextID hands out ids like a sequence: rolled back ids are not reused
func (s *Store) nextID(table string) int64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq[table]++
	return s.seq[table]
}

// CreateWithPublisher starts a unit of work whose events are held by publisher
// until commit
func (s *Store) CreateWithPublisher(publisher interfaces.TransactionalEventPublisher) interfaces.UnitOfWork {
	return &unitOfWork{store: s, publisher: publisher}
}

// Refunds returns a copy of every refund row ordered by id
func (s *Store) Refunds() []*entities.Refund {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.Refund, 0, len(s.refunds))
	for _, r := range s.refunds {
		out = append(out, copyRefund(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// History returns a copy of the whole ledger in insertion order
func (s *Store) History() []*entities.BalanceHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.BalanceHistory, 0, len(s.history))
	for _, h := range s.history {
		out = append(out, copyHistory(h))
	}
	return out
}

// Bids returns a copy of every recorded bid in insertion order
func (s *Store) Bids() []*entities.Bid {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.Bid, 0, len(s.bids))
	for _, b := range s.bids {
		c := *b
		out = append(out, &c)
	}
	return out
}

func copyUser(u *entities.User) *entities.User {
	c := *u
	return &c
}

func copyRefund(r *entities.Refund) *entities.Refund {
	c := *r
	return &c
}

func copyHistory(h *entities.BalanceHistory) *entities.BalanceHistory {
	c := *h
	if h.TransactionMetadata != nil {
		c.TransactionMetadata = make(map[string]any, len(h.TransactionMetadata))
		for k, v := range h.TransactionMetadata {
			c.TransactionMetadata[k] = v
		}
	}
	return &c
}
