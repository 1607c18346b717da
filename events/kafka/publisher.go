// Package kafka publishes Ledger lifecycle events to a Kafka topic.
//
// The publisher registers as a Ledger plugin and serializes each event
// as JSON. Messages are keyed by the primary user involved so all
// events for a user land on the same partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vitaly-rudenko/squadledger/balance"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/plugin"
	"github.com/vitaly-rudenko/squadledger/receipt"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "squadledger.events"

// Event type constants.
const (
	EventReceiptSaved    = "receipt.saved"
	EventReceiptDeleted  = "receipt.deleted"
	EventPaymentCreated  = "payment.created"
	EventPaymentDeleted  = "payment.deleted"
	EventDebtsAggregated = "debts.aggregated"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Publisher)(nil)
	_ plugin.OnShutdown        = (*Publisher)(nil)
	_ plugin.OnReceiptSaved    = (*Publisher)(nil)
	_ plugin.OnReceiptDeleted  = (*Publisher)(nil)
	_ plugin.OnPaymentCreated  = (*Publisher)(nil)
	_ plugin.OnPaymentDeleted  = (*Publisher)(nil)
	_ plugin.OnDebtsAggregated = (*Publisher)(nil)
)

// Envelope wraps every published event with its type and timestamp.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// ReceiptEvent is the payload for receipt lifecycle events.
type ReceiptEvent struct {
	ReceiptID   string       `json:"receipt_id"`
	PayerID     string       `json:"payer_id,omitempty"`
	Amount      int64        `json:"amount,omitempty"`
	Currency    string       `json:"currency,omitempty"`
	Description string       `json:"description,omitempty"`
	Shares      []ShareEvent `json:"shares,omitempty"`
}

// ShareEvent is a single debtor share inside a ReceiptEvent.
type ShareEvent struct {
	DebtorID string `json:"debtor_id"`
	Amount   *int64 `json:"amount"` // null = unresolved
}

// PaymentEvent is the payload for payment lifecycle events.
type PaymentEvent struct {
	PaymentID  string `json:"payment_id"`
	FromUserID string `json:"from_user_id,omitempty"`
	ToUserID   string `json:"to_user_id,omitempty"`
	Amount     int64  `json:"amount,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

// AggregationEvent is the payload for debts.aggregated events.
type AggregationEvent struct {
	UserID             string `json:"user_id"`
	IngoingCount       int    `json:"ingoing_count"`
	OutgoingCount      int    `json:"outgoing_count"`
	IncompleteReceipts int    `json:"incomplete_receipts"`
	ElapsedMs          int64  `json:"elapsed_ms"`
}

// writerAPI is the subset of kafka.Writer the publisher uses,
// extracted for testing.
type writerAPI interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher streams ledger events to Kafka.
type Publisher struct {
	writer writerAPI
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger for the publisher.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithWriter replaces the kafka writer. Intended for tests.
func WithWriter(w writerAPI) Option {
	return func(p *Publisher) {
		p.writer = w
	}
}

// NewPublisher creates a Publisher writing to the given brokers and topic.
// An empty topic falls back to DefaultTopic.
func NewPublisher(brokers []string, topic string, opts ...Option) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}

	p := &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements plugin.Plugin.
func (p *Publisher) Name() string { return "kafka-publisher" }

// OnShutdown implements plugin.OnShutdown.
func (p *Publisher) OnShutdown(_ context.Context) error {
	return p.writer.Close()
}

// ──────────────────────────────────────────────────
// Receipt lifecycle hooks
// ──────────────────────────────────────────────────

// OnReceiptSaved implements plugin.OnReceiptSaved.
func (p *Publisher) OnReceiptSaved(ctx context.Context, r *receipt.Receipt, debts []*receipt.Debt) error {
	shares := make([]ShareEvent, len(debts))
	for i, d := range debts {
		var amount *int64
		if v, ok := d.Amount.Int64(); ok {
			amount = &v
		}
		shares[i] = ShareEvent{DebtorID: d.DebtorID, Amount: amount}
	}

	return p.publish(ctx, r.PayerID, EventReceiptSaved, ReceiptEvent{
		ReceiptID:   r.ID.String(),
		PayerID:     r.PayerID,
		Amount:      r.Amount.Amount,
		Currency:    r.Amount.Currency,
		Description: r.Description,
		Shares:      shares,
	})
}

// OnReceiptDeleted implements plugin.OnReceiptDeleted.
func (p *Publisher) OnReceiptDeleted(ctx context.Context, receiptID id.ReceiptID) error {
	return p.publish(ctx, receiptID.String(), EventReceiptDeleted, ReceiptEvent{
		ReceiptID: receiptID.String(),
	})
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentCreated implements plugin.OnPaymentCreated.
func (p *Publisher) OnPaymentCreated(ctx context.Context, pay *payment.Payment) error {
	return p.publish(ctx, pay.FromUserID, EventPaymentCreated, PaymentEvent{
		PaymentID:  pay.ID.String(),
		FromUserID: pay.FromUserID,
		ToUserID:   pay.ToUserID,
		Amount:     pay.Amount.Amount,
		Currency:   pay.Amount.Currency,
	})
}

// OnPaymentDeleted implements plugin.OnPaymentDeleted.
func (p *Publisher) OnPaymentDeleted(ctx context.Context, paymentID id.PaymentID) error {
	return p.publish(ctx, paymentID.String(), EventPaymentDeleted, PaymentEvent{
		PaymentID: paymentID.String(),
	})
}

// ──────────────────────────────────────────────────
// Aggregation hooks
// ──────────────────────────────────────────────────

// OnDebtsAggregated implements plugin.OnDebtsAggregated.
func (p *Publisher) OnDebtsAggregated(ctx context.Context, userID string, summary *balance.Summary, elapsed time.Duration) error {
	return p.publish(ctx, userID, EventDebtsAggregated, AggregationEvent{
		UserID:             userID,
		IngoingCount:       len(summary.IngoingDebts),
		OutgoingCount:      len(summary.OutgoingDebts),
		IncompleteReceipts: len(summary.IncompleteReceiptIDs),
		ElapsedMs:          elapsed.Milliseconds(),
	})
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func (p *Publisher) publish(ctx context.Context, key, eventType string, payload any) error {
	data, err := json.Marshal(Envelope{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("squadledger/kafka: marshal %s: %w", eventType, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	})
	if err != nil {
		// Event delivery is best effort, the write itself already
		// succeeded by the time hooks run.
		p.logger.Warn("kafka: failed to publish event",
			"type", eventType,
			"key", key,
			"error", err,
		)
	}
	return nil
}
