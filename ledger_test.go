package squadledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vitaly-rudenko/squadledger"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/receipt"
	"github.com/vitaly-rudenko/squadledger/store/memory"
	"github.com/vitaly-rudenko/squadledger/types"
)

func newLedger(t *testing.T, opts ...squadledger.Option) *squadledger.Ledger {
	t.Helper()

	l := squadledger.New(memory.New(), opts...)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })

	return l
}

func TestSaveReceipt(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	r, err := l.SaveReceipt(ctx, squadledger.SaveReceiptInput{
		EditorID:    "user-1",
		PayerID:     "user-1",
		Amount:      squadledger.UAH(30000),
		Description: "groceries",
		Splits: []receipt.Split{
			{DebtorID: "user-2", Amount: squadledger.Resolved(15000)},
			{DebtorID: "user-3", Amount: squadledger.Resolved(15000)},
		},
	})
	if err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}
	if r.ID.IsNil() {
		t.Error("receipt ID not assigned")
	}
	if r.ID.Prefix() != id.PrefixReceipt {
		t.Errorf("ID prefix = %q, want %q", r.ID.Prefix(), id.PrefixReceipt)
	}

	got, debts, err := l.GetReceipt(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReceipt() error = %v", err)
	}
	if got.Description != "groceries" {
		t.Errorf("Description = %q", got.Description)
	}
	if len(debts) != 2 {
		t.Fatalf("len(debts) = %d, want 2", len(debts))
	}
	for _, d := range debts {
		if d.ReceiptID != r.ID {
			t.Errorf("debt %s points at receipt %s, want %s", d.ID, d.ReceiptID, r.ID)
		}
	}
}

func TestSaveReceiptValidation(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	_, err := l.SaveReceipt(ctx, squadledger.SaveReceiptInput{
		EditorID: "user-1",
		PayerID:  "user-1",
		Amount:   squadledger.UAH(10000),
		Splits: []receipt.Split{
			{DebtorID: "user-2", Amount: squadledger.Resolved(9999)},
		},
	})
	if !errors.Is(err, squadledger.ErrAmountMismatch) {
		t.Errorf("SaveReceipt() error = %v, want ErrAmountMismatch", err)
	}

	_, err = l.SaveReceipt(ctx, squadledger.SaveReceiptInput{
		EditorID: "user-1",
		PayerID:  "user-1",
		Amount:   squadledger.USD(10000),
		Splits: []receipt.Split{
			{DebtorID: "user-2", Amount: squadledger.Resolved(10000)},
		},
	})
	if !errors.Is(err, squadledger.ErrCurrencyMismatch) {
		t.Errorf("SaveReceipt() with usd error = %v, want ErrCurrencyMismatch", err)
	}
}

func TestSaveReceiptCustomCurrency(t *testing.T) {
	l := newLedger(t, squadledger.WithCurrency("usd"))
	ctx := context.Background()

	_, err := l.SaveReceipt(ctx, squadledger.SaveReceiptInput{
		EditorID: "user-1",
		PayerID:  "user-1",
		Amount:   squadledger.USD(5000),
		Splits: []receipt.Split{
			{DebtorID: "user-2", Amount: squadledger.Resolved(5000)},
		},
	})
	if err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	if _, err := l.CreatePayment(ctx, "user-2", "user-1", squadledger.UAH(5000)); !errors.Is(err, squadledger.ErrCurrencyMismatch) {
		t.Errorf("CreatePayment() with uah error = %v, want ErrCurrencyMismatch", err)
	}
}

func TestResaveReceiptRewritesDebts(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	r, err := l.SaveReceipt(ctx, squadledger.SaveReceiptInput{
		EditorID: "user-1",
		PayerID:  "user-1",
		Amount:   squadledger.UAH(10000),
		Splits: []receipt.Split{
			{DebtorID: "user-2", Amount: squadledger.Resolved(10000)},
		},
	})
	if err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	resaved, err := l.SaveReceipt(ctx, squadledger.SaveReceiptInput{
		ID:       r.ID,
		EditorID: "user-2",
		PayerID:  "user-1",
		Amount:   squadledger.UAH(12000),
		Splits: []receipt.Split{
			{DebtorID: "user-2", Amount: squadledger.Resolved(6000)},
			{DebtorID: "user-3", Amount: squadledger.Resolved(6000)},
		},
	})
	if err != nil {
		t.Fatalf("SaveReceipt() re-save error = %v", err)
	}
	if resaved.ID != r.ID {
		t.Errorf("re-save changed the ID: %s != %s", resaved.ID, r.ID)
	}
	if !resaved.CreatedAt.Equal(r.CreatedAt) {
		t.Error("re-save lost the original CreatedAt")
	}

	_, debts, err := l.GetReceipt(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReceipt() error = %v", err)
	}
	if len(debts) != 2 {
		t.Fatalf("len(debts) after re-save = %d, want 2", len(debts))
	}
}

func TestResaveUnknownReceipt(t *testing.T) {
	l := newLedger(t)

	_, err := l.SaveReceipt(context.Background(), squadledger.SaveReceiptInput{
		ID:       id.NewReceiptID(),
		EditorID: "user-1",
		PayerID:  "user-1",
		Amount:   squadledger.UAH(10000),
		Splits: []receipt.Split{
			{DebtorID: "user-2", Amount: squadledger.Resolved(10000)},
		},
	})
	if !errors.Is(err, squadledger.ErrReceiptNotFound) {
		t.Errorf("SaveReceipt() error = %v, want ErrReceiptNotFound", err)
	}
}

func TestDeleteReceiptParticipantCheck(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	r, err := l.SaveReceipt(ctx, squadledger.SaveReceiptInput{
		EditorID: "user-1",
		PayerID:  "user-1",
		Amount:   squadledger.UAH(10000),
		Splits: []receipt.Split{
			{DebtorID: "user-2", Amount: squadledger.Resolved(10000)},
		},
	})
	if err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	if err := l.DeleteReceipt(ctx, r.ID, "user-3"); !errors.Is(err, squadledger.ErrNotAParticipant) {
		t.Errorf("DeleteReceipt() by stranger error = %v, want ErrNotAParticipant", err)
	}

	if err := l.DeleteReceipt(ctx, r.ID, "user-2"); err != nil {
		t.Fatalf("DeleteReceipt() by debtor error = %v", err)
	}

	if _, _, err := l.GetReceipt(ctx, r.ID); !errors.Is(err, squadledger.ErrReceiptNotFound) {
		t.Errorf("GetReceipt() after delete error = %v, want ErrReceiptNotFound", err)
	}
}

func TestPaymentLifecycle(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	p, err := l.CreatePayment(ctx, "user-2", "user-1", squadledger.UAH(5000))
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
	if p.ID.Prefix() != id.PrefixPayment {
		t.Errorf("ID prefix = %q, want %q", p.ID.Prefix(), id.PrefixPayment)
	}

	if _, err := l.CreatePayment(ctx, "user-1", "user-1", squadledger.UAH(100)); !errors.Is(err, squadledger.ErrSelfPayment) {
		t.Errorf("CreatePayment() self error = %v, want ErrSelfPayment", err)
	}

	if err := l.DeletePayment(ctx, p.ID, "user-3"); !errors.Is(err, squadledger.ErrNotAParticipant) {
		t.Errorf("DeletePayment() by stranger error = %v, want ErrNotAParticipant", err)
	}

	if err := l.DeletePayment(ctx, p.ID, "user-1"); err != nil {
		t.Fatalf("DeletePayment() by recipient error = %v", err)
	}

	if _, err := l.GetPayment(ctx, p.ID); !errors.Is(err, squadledger.ErrPaymentNotFound) {
		t.Errorf("GetPayment() after delete error = %v, want ErrPaymentNotFound", err)
	}
}

func TestAggregateDebtsEndToEnd(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	// user-1 pays ₴300, split evenly across the other two.
	if _, err := l.SaveReceipt(ctx, squadledger.SaveReceiptInput{
		EditorID: "user-1",
		PayerID:  "user-1",
		Amount:   squadledger.UAH(30000),
		Splits: []receipt.Split{
			{DebtorID: "user-2", Amount: squadledger.Resolved(15000)},
			{DebtorID: "user-3", Amount: squadledger.Resolved(15000)},
		},
	}); err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	// user-2 settles half of their share.
	if _, err := l.CreatePayment(ctx, "user-2", "user-1", squadledger.UAH(7500)); err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}

	summary, err := l.AggregateDebts(ctx, "user-1")
	if err != nil {
		t.Fatalf("AggregateDebts() error = %v", err)
	}

	if len(summary.OutgoingDebts) != 0 {
		t.Errorf("OutgoingDebts = %v, want none", summary.OutgoingDebts)
	}
	if len(summary.IngoingDebts) != 2 {
		t.Fatalf("len(IngoingDebts) = %d, want 2", len(summary.IngoingDebts))
	}

	byUser := make(map[string]types.Money)
	for _, d := range summary.IngoingDebts {
		byUser[d.FromUserID] = d.Amount
	}
	if got := byUser["user-2"]; !got.Equal(types.UAH(7500)) {
		t.Errorf("user-2 owes %v, want ₴75.00", got)
	}
	if got := byUser["user-3"]; !got.Equal(types.UAH(15000)) {
		t.Errorf("user-3 owes %v, want ₴150.00", got)
	}

	// The debtor's view mirrors it.
	summary, err = l.AggregateDebts(ctx, "user-2")
	if err != nil {
		t.Fatalf("AggregateDebts(user-2) error = %v", err)
	}
	if len(summary.OutgoingDebts) != 1 || !summary.OutgoingDebts[0].Amount.Equal(types.UAH(7500)) {
		t.Errorf("user-2 OutgoingDebts = %v, want ₴75.00 to user-1", summary.OutgoingDebts)
	}
}

func TestAggregateDebtsIncompleteReceipts(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	r, err := l.SaveReceipt(ctx, squadledger.SaveReceiptInput{
		EditorID: "user-1",
		PayerID:  "user-1",
		Amount:   squadledger.UAH(30000),
		Splits: []receipt.Split{
			{DebtorID: "user-2", Amount: squadledger.Resolved(15000)},
			{DebtorID: "user-3", Amount: squadledger.Unresolved()},
		},
	})
	if err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	summary, err := l.AggregateDebts(ctx, "user-1")
	if err != nil {
		t.Fatalf("AggregateDebts() error = %v", err)
	}

	if len(summary.IncompleteReceiptIDs) != 1 || summary.IncompleteReceiptIDs[0] != r.ID {
		t.Errorf("IncompleteReceiptIDs = %v, want [%v]", summary.IncompleteReceiptIDs, r.ID)
	}

	found := false
	for _, d := range summary.IngoingDebts {
		if d.FromUserID != "user-3" {
			continue
		}
		found = true
		if !d.Amount.IsZero() {
			t.Errorf("user-3 amount = %v, want zero: unresolved never counts as money", d.Amount)
		}
		if !d.Incomplete() {
			t.Error("user-3 entry not flagged incomplete")
		}
	}
	if !found {
		t.Error("user-3 entry missing from IngoingDebts")
	}
}

func TestAggregateDebtsEmptyUser(t *testing.T) {
	l := newLedger(t)

	if _, err := l.AggregateDebts(context.Background(), ""); !errors.Is(err, squadledger.ErrInvalidInput) {
		t.Errorf("AggregateDebts(\"\") error = %v, want ErrInvalidInput", err)
	}
}

func TestListReceiptsAndPayments(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	if _, err := l.SaveReceipt(ctx, squadledger.SaveReceiptInput{
		EditorID: "user-1",
		PayerID:  "user-1",
		Amount:   squadledger.UAH(10000),
		Splits: []receipt.Split{
			{DebtorID: "user-2", Amount: squadledger.Resolved(10000)},
		},
	}); err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}
	if _, err := l.CreatePayment(ctx, "user-2", "user-1", squadledger.UAH(10000)); err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}

	receipts, err := l.ListReceipts(ctx, "user-2", receipt.ListOpts{})
	if err != nil {
		t.Fatalf("ListReceipts() error = %v", err)
	}
	if len(receipts) != 1 {
		t.Errorf("len(receipts) = %d, want 1", len(receipts))
	}

	payments, err := l.ListPayments(ctx, "user-2", payment.ListOpts{})
	if err != nil {
		t.Fatalf("ListPayments() error = %v", err)
	}
	if len(payments) != 1 {
		t.Errorf("len(payments) = %d, want 1", len(payments))
	}
}
