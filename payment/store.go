package payment

import (
	"context"

	"github.com/vitaly-rudenko/squadledger/id"
)

// Store is the narrow payment-side storage contract.
type Store interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, paymentID id.PaymentID) (*Payment, error)
	// ListByParticipant returns payments where the user is the sender or
	// the receiver, newest first.
	ListByParticipant(ctx context.Context, userID string, opts ListOpts) ([]*Payment, error)
	// Delete soft-deletes the payment.
	Delete(ctx context.Context, paymentID id.PaymentID) error

	// AggregatePayments returns per-(sender, receiver) totals matching
	// the filter, soft-deleted rows excluded.
	AggregatePayments(ctx context.Context, filter Filter) ([]Group, error)
}
