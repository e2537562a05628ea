package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pennybid/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"google.golang.org/grpc"
)

// MetricsProvider manages OpenTelemetry metrics for the auction service.
// It implements interfaces.MetricsRecorder.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	bidsAcceptedCounter        metric.Int64Counter
	bidsRejectedCounter        metric.Int64Counter
	auctionsActiveGauge        metric.Int64UpDownCounter
	auctionsClosedCounter      metric.Int64Counter
	tickDurationHist           metric.Float64Histogram
	refundsIssuedCounter       metric.Int64Counter
	refundsIssuedValueCounter  metric.Int64Counter
	refundsFailedCounter       metric.Int64Counter
	balanceTransactionsCounter metric.Int64Counter
	invariantViolationsCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	var exporter sdkmetric.Exporter
	var err error
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
			otlpmetricgrpc.WithDialOption(grpc.WithUserAgent(mp.config.OTelServiceName)),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	if err := mp.initializeWithReader(reader); err != nil {
		return err
	}

	otel.SetMeterProvider(mp.meterProvider)
	log.Info("Metrics provider initialized successfully")
	return nil
}

// initializeWithReader builds the meter provider around reader.
// Callers hold mp.mu.
func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	mp.meter = mp.meterProvider.Meter(MetricPrefix)

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&mp.bidsAcceptedCounter, BidsAcceptedTotal, "Total number of accepted bids", "1"},
		{&mp.bidsRejectedCounter, BidsRejectedTotal, "Total number of rejected bids", "1"},
		{&mp.auctionsClosedCounter, AuctionsClosedTotal, "Total number of resolved auctions", "1"},
		{&mp.refundsIssuedCounter, RefundsIssuedTotal, "Total number of refunds credited", "1"},
		{&mp.refundsIssuedValueCounter, RefundsIssuedValue, "Total value of refunds credited", "{tenge}"},
		{&mp.refundsFailedCounter, RefundsFailedTotal, "Total number of failed refund attempts", "1"},
		{&mp.balanceTransactionsCounter, BalanceTransactionsTotal, "Total number of balance transactions", "1"},
		{&mp.invariantViolationsCounter, InvariantViolationsTotal, "Total number of aborted operations due to broken invariants", "1"},
	}
	for _, c := range counters {
		*c.target, err = mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
	}

	// UpDownCounter for gauge-like behavior
	mp.auctionsActiveGauge, err = mp.meter.Int64UpDownCounter(
		AuctionsActive,
		metric.WithDescription("Current number of auctions accepting bids"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create auctions active gauge: %w", err)
	}

	mp.tickDurationHist, err = mp.meter.Float64Histogram(
		AuctionTickDuration,
		metric.WithDescription("Duration of one countdown tick in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create tick duration histogram: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordBidAccepted records an accepted bid
func (mp *MetricsProvider) RecordBidAccepted() {
	if !mp.isEnabled() {
		return
	}
	mp.bidsAcceptedCounter.Add(context.Background(), 1)
}

// RecordBidRejected records a rejected bid labelled with its reason
func (mp *MetricsProvider) RecordBidRejected(reason string) {
	if !mp.isEnabled() {
		return
	}
	mp.bidsRejectedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelReason, reason)),
	)
}

// UpdateActiveAuctions updates the count of active auctions (increment/decrement)
func (mp *MetricsProvider) UpdateActiveAuctions(delta int64) {
	if !mp.isEnabled() {
		return
	}
	mp.auctionsActiveGauge.Add(context.Background(), delta)
}

// RecordAuctionClosed records a resolved auction
func (mp *MetricsProvider) RecordAuctionClosed() {
	if !mp.isEnabled() {
		return
	}
	mp.auctionsClosedCounter.Add(context.Background(), 1)
}

// RecordRefundIssued records a credited refund and its value
func (mp *MetricsProvider) RecordRefundIssued(amount int64) {
	if !mp.isEnabled() {
		return
	}
	mp.refundsIssuedCounter.Add(context.Background(), 1)
	mp.refundsIssuedValueCounter.Add(context.Background(), amount)
}

// RecordRefundFailed records a failed refund attempt
func (mp *MetricsProvider) RecordRefundFailed() {
	if !mp.isEnabled() {
		return
	}
	mp.refundsFailedCounter.Add(context.Background(), 1)
}

// RecordBalanceTransaction records a balance transaction
func (mp *MetricsProvider) RecordBalanceTransaction(transactionType string) {
	if !mp.isEnabled() {
		return
	}
	mp.balanceTransactionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelType, transactionType)),
	)
}

// RecordInvariantViolation records an operation aborted by a broken invariant
func (mp *MetricsProvider) RecordInvariantViolation(operation string) {
	if !mp.isEnabled() {
		return
	}
	mp.invariantViolationsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOperation, operation)),
	)
}

// RecordTickDuration records how long one countdown tick took
func (mp *MetricsProvider) RecordTickDuration(d time.Duration) {
	if !mp.isEnabled() {
		return
	}
	mp.tickDurationHist.Record(context.Background(), d.Seconds())
}

// isEnabled checks if metrics are enabled and instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meter != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
