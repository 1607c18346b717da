// Package audithook bridges Ledger lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vitaly-rudenko/squadledger/balance"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/plugin"
	"github.com/vitaly-rudenko/squadledger/receipt"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Extension)(nil)
	_ plugin.OnReceiptSaved    = (*Extension)(nil)
	_ plugin.OnReceiptDeleted  = (*Extension)(nil)
	_ plugin.OnPaymentCreated  = (*Extension)(nil)
	_ plugin.OnPaymentDeleted  = (*Extension)(nil)
	_ plugin.OnDebtsAggregated = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Ledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Receipt lifecycle hooks
// ──────────────────────────────────────────────────

// OnReceiptSaved implements plugin.OnReceiptSaved.
func (e *Extension) OnReceiptSaved(ctx context.Context, r *receipt.Receipt, debts []*receipt.Debt) error {
	unresolved := 0
	for _, d := range debts {
		if !d.Amount.IsResolved() {
			unresolved++
		}
	}

	return e.record(ctx, ActionReceiptSaved, SeverityInfo, OutcomeSuccess,
		ResourceReceipt, r.ID.String(), CategoryLedger, nil,
		"payer_id", r.PayerID,
		"amount", r.Amount.Amount,
		"currency", r.Amount.Currency,
		"debt_count", len(debts),
		"unresolved_count", unresolved,
	)
}

// OnReceiptDeleted implements plugin.OnReceiptDeleted.
func (e *Extension) OnReceiptDeleted(ctx context.Context, receiptID id.ReceiptID) error {
	return e.record(ctx, ActionReceiptDeleted, SeverityInfo, OutcomeSuccess,
		ResourceReceipt, receiptID.String(), CategoryLedger, nil,
		"receipt_id", receiptID.String(),
	)
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentCreated implements plugin.OnPaymentCreated.
func (e *Extension) OnPaymentCreated(ctx context.Context, p *payment.Payment) error {
	return e.record(ctx, ActionPaymentCreated, SeverityInfo, OutcomeSuccess,
		ResourcePayment, p.ID.String(), CategorySettlement, nil,
		"from_user_id", p.FromUserID,
		"to_user_id", p.ToUserID,
		"amount", p.Amount.Amount,
		"currency", p.Amount.Currency,
	)
}

// OnPaymentDeleted implements plugin.OnPaymentDeleted.
func (e *Extension) OnPaymentDeleted(ctx context.Context, paymentID id.PaymentID) error {
	return e.record(ctx, ActionPaymentDeleted, SeverityInfo, OutcomeSuccess,
		ResourcePayment, paymentID.String(), CategorySettlement, nil,
		"payment_id", paymentID.String(),
	)
}

// ──────────────────────────────────────────────────
// Aggregation hooks
// ──────────────────────────────────────────────────

// OnDebtsAggregated implements plugin.OnDebtsAggregated.
func (e *Extension) OnDebtsAggregated(ctx context.Context, userID string, summary *balance.Summary, elapsed time.Duration) error {
	return e.record(ctx, ActionDebtsAggregated, SeverityInfo, OutcomeSuccess,
		ResourceBalance, userID, CategoryReporting, nil,
		"user_id", userID,
		"ingoing_count", len(summary.IngoingDebts),
		"outgoing_count", len(summary.OutgoingDebts),
		"incomplete_receipts", len(summary.IncompleteReceiptIDs),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
