package receipt

import (
	"context"

	"github.com/vitaly-rudenko/squadledger/id"
)

// Store is the narrow receipt-side storage contract. Any backend (SQL,
// in-memory, remote) satisfying it can serve the aggregation engine.
type Store interface {
	// Save creates the receipt or fully re-saves it: the receipt row and
	// its debts are rewritten together, with prior debts soft-deleted.
	Save(ctx context.Context, r *Receipt, debts []*Debt) error
	Get(ctx context.Context, receiptID id.ReceiptID) (*Receipt, error)
	// ListByParticipant returns receipts where the user is the payer or a
	// debtor, newest first.
	ListByParticipant(ctx context.Context, userID string, opts ListOpts) ([]*Receipt, error)
	// Delete soft-deletes the receipt and its debts.
	Delete(ctx context.Context, receiptID id.ReceiptID) error

	// Debts returns the live (non-deleted) debt rows of one receipt.
	Debts(ctx context.Context, receiptID id.ReceiptID) ([]*Debt, error)
	// AggregateDebts returns per-(debtor, payer) groups matching the
	// filter, self-debts and soft-deleted rows excluded.
	AggregateDebts(ctx context.Context, filter DebtFilter) ([]DebtGroup, error)
}
