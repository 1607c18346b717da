package squadledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/vitaly-rudenko/squadledger/balance"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/plugin"
	"github.com/vitaly-rudenko/squadledger/receipt"
	"github.com/vitaly-rudenko/squadledger/store"
	"github.com/vitaly-rudenko/squadledger/types"
)

// DefaultCurrency is the ledger currency used unless WithCurrency overrides it.
const DefaultCurrency = "uah"

// Ledger is the main debt ledger engine.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	currency string
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    s,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		currency: DefaultCurrency,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithCurrency sets the single ledger currency. Writes in any other
// currency are rejected with ErrCurrencyMismatch.
func WithCurrency(currency string) Option {
	return func(l *Ledger) {
		l.currency = currency
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// Currency returns the configured ledger currency.
func (l *Ledger) Currency() string {
	return l.currency
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("squadledger started",
		"currency", l.currency,
		"plugins", l.plugins.Count(),
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// ──────────────────────────────────────────────────
// Receipts
// ──────────────────────────────────────────────────

// SaveReceiptInput carries everything needed to create a receipt or fully
// re-save an existing one. A re-save rewrites the debts along with the
// receipt; there is no partial receipt update.
type SaveReceiptInput struct {
	// ID is set for a re-save of an existing receipt and left zero for a
	// new one.
	ID id.ReceiptID

	// EditorID is the user performing the save. They must be the payer or
	// one of the debtors.
	EditorID string

	PayerID     string
	Amount      types.Money
	Description string
	PhotoID     string
	Splits      []receipt.Split
}

// SaveReceipt creates a receipt or fully re-saves an existing one,
// rewriting its debts from the given splits. Splits with unresolved
// amounts are stored as-is; they mark the receipt incomplete rather than
// counting as zero.
func (l *Ledger) SaveReceipt(ctx context.Context, in SaveReceiptInput) (*receipt.Receipt, error) {
	if in.Amount.Currency != l.currency {
		return nil, ErrCurrencyMismatch
	}
	if err := validateReceipt(in.PayerID, in.Amount, in.Splits, in.EditorID); err != nil {
		return nil, err
	}

	r := &receipt.Receipt{
		Entity:      types.NewEntity(),
		ID:          in.ID,
		PayerID:     in.PayerID,
		Amount:      in.Amount,
		Description: in.Description,
		PhotoID:     in.PhotoID,
	}

	if r.ID.IsNil() {
		r.ID = id.NewReceiptID()
	} else {
		existing, err := l.store.GetReceipt(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		r.Entity = existing.Entity
		r.Touch()
	}

	debts := make([]*receipt.Debt, 0, len(in.Splits))
	for _, split := range in.Splits {
		debts = append(debts, &receipt.Debt{
			Entity:    types.NewEntity(),
			ID:        id.NewDebtID(),
			ReceiptID: r.ID,
			DebtorID:  split.DebtorID,
			Amount:    split.Amount,
		})
	}

	if err := l.store.SaveReceipt(ctx, r, debts); err != nil {
		return nil, err
	}

	l.plugins.EmitReceiptSaved(ctx, r, debts)
	return r, nil
}

// GetReceipt retrieves a receipt and its debts.
func (l *Ledger) GetReceipt(ctx context.Context, receiptID id.ReceiptID) (*receipt.Receipt, []*receipt.Debt, error) {
	r, err := l.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, nil, err
	}

	debts, err := l.store.GetDebts(ctx, receiptID)
	if err != nil {
		return nil, nil, err
	}

	return r, debts, nil
}

// ListReceipts lists receipts where the user is the payer or a debtor,
// newest first.
func (l *Ledger) ListReceipts(ctx context.Context, userID string, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return l.store.ListReceiptsByParticipant(ctx, userID, opts)
}

// DeleteReceipt soft-deletes a receipt and its debts. The editor must be
// the payer or one of the debtors.
func (l *Ledger) DeleteReceipt(ctx context.Context, receiptID id.ReceiptID, editorID string) error {
	r, err := l.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return err
	}

	if r.PayerID != editorID {
		debts, err := l.store.GetDebts(ctx, receiptID)
		if err != nil {
			return err
		}
		participant := false
		for _, d := range debts {
			if d.DebtorID == editorID {
				participant = true
				break
			}
		}
		if !participant {
			return ErrNotAParticipant
		}
	}

	if err := l.store.DeleteReceipt(ctx, receiptID); err != nil {
		return err
	}

	l.plugins.EmitReceiptDeleted(ctx, receiptID)
	return nil
}

// ──────────────────────────────────────────────────
// Payments
// ──────────────────────────────────────────────────

// CreatePayment records a direct payment between two users.
func (l *Ledger) CreatePayment(ctx context.Context, fromUserID, toUserID string, amount types.Money) (*payment.Payment, error) {
	if amount.Currency != l.currency {
		return nil, ErrCurrencyMismatch
	}
	if err := validatePayment(fromUserID, toUserID, amount); err != nil {
		return nil, err
	}

	p := &payment.Payment{
		Entity:     types.NewEntity(),
		ID:         id.NewPaymentID(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Amount:     amount,
	}

	if err := l.store.CreatePayment(ctx, p); err != nil {
		return nil, err
	}

	l.plugins.EmitPaymentCreated(ctx, p)
	return p, nil
}

// GetPayment retrieves a payment by ID.
func (l *Ledger) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	return l.store.GetPayment(ctx, paymentID)
}

// ListPayments lists payments where the user is the sender or recipient,
// newest first.
func (l *Ledger) ListPayments(ctx context.Context, userID string, opts payment.ListOpts) ([]*payment.Payment, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return l.store.ListPaymentsByParticipant(ctx, userID, opts)
}

// DeletePayment soft-deletes a payment. The editor must be the sender or
// the recipient.
func (l *Ledger) DeletePayment(ctx context.Context, paymentID id.PaymentID, editorID string) error {
	p, err := l.store.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	if p.FromUserID != editorID && p.ToUserID != editorID {
		return ErrNotAParticipant
	}

	if err := l.store.DeletePayment(ctx, paymentID); err != nil {
		return err
	}

	l.plugins.EmitPaymentDeleted(ctx, paymentID)
	return nil
}

// ──────────────────────────────────────────────────
// Aggregation
// ──────────────────────────────────────────────────

// AggregateDebts computes the user's net balance against every counterpart,
// folding receipts and payments together. Unresolved shares never count as
// zero: they surface as incomplete receipt ids on the affected entries.
func (l *Ledger) AggregateDebts(ctx context.Context, userID string) (*balance.Summary, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}

	start := time.Now()

	// Debts owed to the user (they paid the receipts).
	ingoingDebts, err := l.store.AggregateDebts(ctx, receipt.DebtFilter{ToUserID: userID})
	if err != nil {
		return nil, err
	}

	// Debts the user owes (someone else paid).
	outgoingDebts, err := l.store.AggregateDebts(ctx, receipt.DebtFilter{FromUserID: userID})
	if err != nil {
		return nil, err
	}

	ingoingPayments, err := l.store.AggregatePayments(ctx, payment.Filter{ToUserID: userID})
	if err != nil {
		return nil, err
	}

	outgoingPayments, err := l.store.AggregatePayments(ctx, payment.Filter{FromUserID: userID})
	if err != nil {
		return nil, err
	}

	summary := balance.Aggregate(userID, l.currency, ingoingDebts, outgoingDebts, ingoingPayments, outgoingPayments)

	elapsed := time.Since(start)
	l.plugins.EmitDebtsAggregated(ctx, userID, summary, elapsed)

	l.logger.Debug("aggregated debts",
		"user_id", userID,
		"ingoing", len(summary.IngoingDebts),
		"outgoing", len(summary.OutgoingDebts),
		"elapsed_ms", elapsed.Milliseconds(),
	)

	return summary, nil
}
