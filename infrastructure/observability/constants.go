package observability

// Metric name prefixes
const (
	MetricPrefix = "pennybid"
)

// Metric names
const (
	// Bid metrics
	BidsAcceptedTotal = MetricPrefix + ".bids.accepted_total"
	BidsRejectedTotal = MetricPrefix + ".bids.rejected_total"

	// Auction metrics
	AuctionsActive      = MetricPrefix + ".auctions.active"
	AuctionsClosedTotal = MetricPrefix + ".auctions.closed_total"
	AuctionTickDuration = MetricPrefix + ".auctions.tick_duration"

	// Refund metrics
	RefundsIssuedTotal = MetricPrefix + ".refunds.issued_total"
	RefundsIssuedValue = MetricPrefix + ".refunds.issued_value"
	RefundsFailedTotal = MetricPrefix + ".refunds.failed_total"

	// Balance metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"

	// Integrity metrics
	InvariantViolationsTotal = MetricPrefix + ".invariant_violations_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelReason    = "reason"
	LabelOperation = "operation"
)
