// Package plugin provides an extensible plugin system for the ledger.
// Plugins can hook into lifecycle events to extend functionality:
// audit trails, metrics, outbound event streams, reminder bots.
package plugin

import (
	"context"
	"time"

	"github.com/vitaly-rudenko/squadledger/balance"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/receipt"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized. The engine is passed
// as an opaque value to avoid an import cycle with the root package.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Receipt lifecycle hooks
// ──────────────────────────────────────────────────

// OnReceiptSaved is called when a receipt is created or fully re-saved.
type OnReceiptSaved interface {
	Plugin
	OnReceiptSaved(ctx context.Context, r *receipt.Receipt, debts []*receipt.Debt) error
}

// OnReceiptDeleted is called when a receipt (and its debts) is soft-deleted.
type OnReceiptDeleted interface {
	Plugin
	OnReceiptDeleted(ctx context.Context, receiptID id.ReceiptID) error
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentCreated is called when a direct settlement is recorded.
type OnPaymentCreated interface {
	Plugin
	OnPaymentCreated(ctx context.Context, p *payment.Payment) error
}

// OnPaymentDeleted is called when a payment is soft-deleted.
type OnPaymentDeleted interface {
	Plugin
	OnPaymentDeleted(ctx context.Context, paymentID id.PaymentID) error
}

// ──────────────────────────────────────────────────
// Aggregation hooks
// ──────────────────────────────────────────────────

// OnDebtsAggregated is called after every debt aggregation, with the
// computed summary and how long the computation (including store reads)
// took. Hook implementations must treat the summary as read-only.
type OnDebtsAggregated interface {
	Plugin
	OnDebtsAggregated(ctx context.Context, userID string, summary *balance.Summary, elapsed time.Duration) error
}
