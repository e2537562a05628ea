package services

import "time"

type noopMetrics struct{}

func (noopMetrics) RecordBidAccepted()               {}
func (noopMetrics) RecordBidRejected(string)         {}
func (noopMetrics) UpdateActiveAuctions(int64)       {}
func (noopMetrics) RecordAuctionClosed()             {}
func (noopMetrics) RecordRefundIssued(int64)         {}
func (noopMetrics) RecordRefundFailed()              {}
func (noopMetrics) RecordBalanceTransaction(string)  {}
func (noopMetrics) RecordInvariantViolation(string)  {}
func (noopMetrics) RecordTickDuration(time.Duration) {}
