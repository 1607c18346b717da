package store

import (
	"context"

	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/receipt"
)

// Store is the unified storage interface for all ledger entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Receipt methods
	SaveReceipt(ctx context.Context, r *receipt.Receipt, debts []*receipt.Debt) error
	GetReceipt(ctx context.Context, receiptID id.ReceiptID) (*receipt.Receipt, error)
	ListReceiptsByParticipant(ctx context.Context, userID string, opts receipt.ListOpts) ([]*receipt.Receipt, error)
	DeleteReceipt(ctx context.Context, receiptID id.ReceiptID) error
	GetDebts(ctx context.Context, receiptID id.ReceiptID) ([]*receipt.Debt, error)
	AggregateDebts(ctx context.Context, filter receipt.DebtFilter) ([]receipt.DebtGroup, error)

	// Payment methods
	CreatePayment(ctx context.Context, p *payment.Payment) error
	GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error)
	ListPaymentsByParticipant(ctx context.Context, userID string, opts payment.ListOpts) ([]*payment.Payment, error)
	DeletePayment(ctx context.Context, paymentID id.PaymentID) error
	AggregatePayments(ctx context.Context, filter payment.Filter) ([]payment.Group, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
