package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pennybid/domain/entities"
	"pennybid/domain/events"
	"pennybid/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const (
	// TickInterval is one countdown second
	TickInterval = time.Second

	// DefaultDiscoveryInterval is how often the timer looks for open auctions it
	// is not driving yet, such as ones created by another process
	DefaultDiscoveryInterval = 5 * time.Second
)

// AuctionTimer drives the countdown of every open auction. Each auction gets
// its own goroutine ticking once per second until the auction closes, then
// the refunds it owes are issued.
type AuctionTimer struct {
	engine            interfaces.BiddingEngine
	refunds           interfaces.RefundService
	clock             interfaces.Clock
	discoveryInterval time.Duration

	mu      sync.Mutex
	runCtx  context.Context
	running map[int64]struct{}
	wg      sync.WaitGroup
}

// NewAuctionTimer creates a new auction timer
func NewAuctionTimer(engine interfaces.BiddingEngine, refunds interfaces.RefundService, clock interfaces.Clock, discoveryInterval time.Duration) *AuctionTimer {
	if discoveryInterval <= 0 {
		discoveryInterval = DefaultDiscoveryInterval
	}
	return &AuctionTimer{
		engine:            engine,
		refunds:           refunds,
		clock:             clock,
		discoveryInterval: discoveryInterval,
		running:           make(map[int64]struct{}),
	}
}

// Start begins driving open auctions
func (t *AuctionTimer) Start(ctx context.Context) func() {
	runCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.runCtx = runCtx
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		log.WithField("discovery_interval", t.discoveryInterval).Info("Auction timer started")

		ticker := t.clock.NewTicker(t.discoveryInterval)
		defer ticker.Stop()

		t.discover(runCtx)
		for {
			select {
			case <-runCtx.Done():
				log.Info("Auction timer shutting down...")
				return
			case <-ticker.C():
				t.discover(runCtx)
			}
		}
	}()

	return func() {
		cancel()
		t.wg.Wait()
	}
}

// Watch starts the countdown loop for one auction. Watching an auction that
// is already driven, or before Start, does nothing.
func (t *AuctionTimer) Watch(auctionID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runCtx == nil || t.runCtx.Err() != nil {
		return false
	}
	if _, ok := t.running[auctionID]; ok {
		return false
	}
	t.running[auctionID] = struct{}{}

	ctx := t.runCtx
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.forget(auctionID)
		t.run(ctx, auctionID)
	}()
	return true
}

// Watching returns how many auctions currently have a countdown loop
func (t *AuctionTimer) Watching() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.running)
}

// HandleAuctionOpened starts the countdown of a freshly created auction
func (t *AuctionTimer) HandleAuctionOpened(ctx context.Context, event events.Event) error {
	var auctionID int64
	switch e := event.(type) {
	case events.AuctionOpenedEvent:
		auctionID = e.AuctionID
	case *events.AuctionOpenedEvent:
		auctionID = e.AuctionID
	default:
		return fmt.Errorf("unexpected event type %T", event)
	}

	t.Watch(auctionID)
	return nil
}

func (t *AuctionTimer) forget(auctionID int64) {
	t.mu.Lock()
	delete(t.running, auctionID)
	t.mu.Unlock()
}

// discover picks up open auctions nobody in this process is driving yet
func (t *AuctionTimer) discover(ctx context.Context) {
	auctions, err := t.engine.ListOpen(ctx, "")
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Error("Failed to list open auctions")
		}
		return
	}

	started := 0
	for _, auction := range auctions {
		if t.Watch(auction.ID) {
			started++
		}
	}
	if started > 0 {
		log.WithField("count", started).Info("Started countdown for open auctions")
	}
}

// run ticks one auction until it closes
func (t *AuctionTimer) run(ctx context.Context, auctionID int64) {
	ticker := t.clock.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}

		snapshot, err := t.engine.Tick(ctx, auctionID)
		if err != nil {
			if errors.Is(err, entities.ErrNotFound) {
				log.WithField("auction_id", auctionID).Warn("Auction disappeared, stopping countdown")
				return
			}
			if ctx.Err() != nil {
				return
			}
			log.WithFields(log.Fields{
				"auction_id": auctionID,
				"error":      err,
			}).Error("Auction tick failed")
			continue
		}

		if snapshot.IsClosed() {
			t.issueRefunds(ctx, auctionID)
			return
		}
	}
}

// issueRefunds delivers what a closed auction owes. Failures stay pending
// for the refund worker.
func (t *AuctionTimer) issueRefunds(ctx context.Context, auctionID int64) {
	if err := t.refunds.IssueRefunds(ctx, auctionID); err != nil {
		log.WithFields(log.Fields{
			"auction_id": auctionID,
			"error":      err,
		}).Warn("Some refunds were not issued, leaving them to the refund worker")
	}
}
