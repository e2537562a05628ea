package application

import (
	"context"
	"time"

	"pennybid/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultRefundPollInterval is how often pending refunds are swept
	DefaultRefundPollInterval = 30 * time.Second

	refundBatchSize = 100
)

// RefundWorker sweeps refunds left pending by a failed or interrupted close
type RefundWorker struct {
	refunds  interfaces.RefundService
	clock    interfaces.Clock
	interval time.Duration
}

// NewRefundWorker creates a new refund worker
func NewRefundWorker(refunds interfaces.RefundService, clock interfaces.Clock, interval time.Duration) *RefundWorker {
	if interval <= 0 {
		interval = DefaultRefundPollInterval
	}
	return &RefundWorker{
		refunds:  refunds,
		clock:    clock,
		interval: interval,
	}
}

// Start begins the refund worker
func (w *RefundWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		log.WithField("interval", w.interval).Info("Refund worker started")

		ticker := w.clock.NewTicker(w.interval)
		defer ticker.Stop()

		w.sweep(ctx)
		for {
			select {
			case <-ctx.Done():
				log.Info("Refund worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Refund worker shutting down (stop requested)...")
				return
			case <-ticker.C():
				w.sweep(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
		<-done
	}
}

// sweep drains pending refunds batch by batch
func (w *RefundWorker) sweep(ctx context.Context) {
	total := 0
	for ctx.Err() == nil {
		issued, err := w.refunds.ProcessPending(ctx, refundBatchSize)
		total += issued
		if err != nil {
			log.WithError(err).Warn("Refund sweep finished with failures")
			break
		}
		if issued < refundBatchSize {
			break
		}
	}

	if total > 0 {
		log.WithField("issued", total).Info("Issued pending refunds")
	}
}
