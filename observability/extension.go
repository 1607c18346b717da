// Package observability provides a metrics extension for Ledger that records
// lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/vitaly-rudenko/squadledger/balance"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/plugin"
	"github.com/vitaly-rudenko/squadledger/receipt"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin            = (*MetricsExtension)(nil)
	_ plugin.OnInit            = (*MetricsExtension)(nil)
	_ plugin.OnReceiptSaved    = (*MetricsExtension)(nil)
	_ plugin.OnReceiptDeleted  = (*MetricsExtension)(nil)
	_ plugin.OnPaymentCreated  = (*MetricsExtension)(nil)
	_ plugin.OnPaymentDeleted  = (*MetricsExtension)(nil)
	_ plugin.OnDebtsAggregated = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Ledger plugin to automatically track ledger metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Receipt metrics
	ReceiptsSaved    Counter
	ReceiptsDeleted  Counter
	ReceiptSplitSize Histogram
	UnresolvedShares Counter

	// Payment metrics
	PaymentsCreated Counter
	PaymentsDeleted Counter
	PaymentAmount   Histogram

	// Aggregation metrics
	AggregationsRun     Counter
	AggregationLatency  Histogram
	IncompleteReceipts  Histogram
	CounterpartsPerUser Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Receipt metrics
		ReceiptsSaved:    factory.Counter("squadledger.receipt.saved"),
		ReceiptsDeleted:  factory.Counter("squadledger.receipt.deleted"),
		ReceiptSplitSize: factory.Histogram("squadledger.receipt.split.size"),
		UnresolvedShares: factory.Counter("squadledger.receipt.shares.unresolved"),

		// Payment metrics
		PaymentsCreated: factory.Counter("squadledger.payment.created"),
		PaymentsDeleted: factory.Counter("squadledger.payment.deleted"),
		PaymentAmount:   factory.Histogram("squadledger.payment.amount"),

		// Aggregation metrics
		AggregationsRun:     factory.Counter("squadledger.aggregation.runs"),
		AggregationLatency:  factory.Histogram("squadledger.aggregation.latency_ms"),
		IncompleteReceipts:  factory.Histogram("squadledger.aggregation.incomplete_receipts"),
		CounterpartsPerUser: factory.Histogram("squadledger.aggregation.counterparts"),

		// Error metrics
		StoreErrors:  factory.Counter("squadledger.store.errors"),
		PluginErrors: factory.Counter("squadledger.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Receipt lifecycle hooks
// ──────────────────────────────────────────────────

// OnReceiptSaved implements plugin.OnReceiptSaved.
func (m *MetricsExtension) OnReceiptSaved(_ context.Context, _ *receipt.Receipt, debts []*receipt.Debt) error {
	m.ReceiptsSaved.Inc()
	m.ReceiptSplitSize.Observe(float64(len(debts)))
	for _, d := range debts {
		if !d.Amount.IsResolved() {
			m.UnresolvedShares.Inc()
		}
	}
	return nil
}

// OnReceiptDeleted implements plugin.OnReceiptDeleted.
func (m *MetricsExtension) OnReceiptDeleted(_ context.Context, _ id.ReceiptID) error {
	m.ReceiptsDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentCreated implements plugin.OnPaymentCreated.
func (m *MetricsExtension) OnPaymentCreated(_ context.Context, p *payment.Payment) error {
	m.PaymentsCreated.Inc()
	m.PaymentAmount.Observe(float64(p.Amount.Amount))
	return nil
}

// OnPaymentDeleted implements plugin.OnPaymentDeleted.
func (m *MetricsExtension) OnPaymentDeleted(_ context.Context, _ id.PaymentID) error {
	m.PaymentsDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Aggregation hooks
// ──────────────────────────────────────────────────

// OnDebtsAggregated implements plugin.OnDebtsAggregated.
func (m *MetricsExtension) OnDebtsAggregated(_ context.Context, _ string, summary *balance.Summary, elapsed time.Duration) error {
	m.AggregationsRun.Inc()
	m.AggregationLatency.Observe(float64(elapsed.Milliseconds()))
	m.IncompleteReceipts.Observe(float64(len(summary.IncompleteReceiptIDs)))
	m.CounterpartsPerUser.Observe(float64(len(summary.IngoingDebts) + len(summary.OutgoingDebts)))
	return nil
}
