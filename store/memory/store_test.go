package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vitaly-rudenko/squadledger"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/receipt"
	"github.com/vitaly-rudenko/squadledger/types"
)

func newReceipt(payerID string, amount int64) *receipt.Receipt {
	return &receipt.Receipt{
		Entity:  types.NewEntity(),
		ID:      id.NewReceiptID(),
		PayerID: payerID,
		Amount:  types.UAH(amount),
	}
}

func newDebt(receiptID id.ReceiptID, debtorID string, amount types.Amount) *receipt.Debt {
	return &receipt.Debt{
		Entity:    types.NewEntity(),
		ID:        id.NewDebtID(),
		ReceiptID: receiptID,
		DebtorID:  debtorID,
		Amount:    amount,
	}
}

func TestSaveAndGetReceipt(t *testing.T) {
	s := New()
	ctx := context.Background()

	r := newReceipt("user-1", 10000)
	debts := []*receipt.Debt{
		newDebt(r.ID, "user-2", types.Resolved(10000)),
	}

	if err := s.SaveReceipt(ctx, r, debts); err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	got, err := s.GetReceipt(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReceipt() error = %v", err)
	}
	if got.PayerID != "user-1" {
		t.Errorf("PayerID = %q, want %q", got.PayerID, "user-1")
	}

	gotDebts, err := s.GetDebts(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetDebts() error = %v", err)
	}
	if len(gotDebts) != 1 {
		t.Fatalf("len(debts) = %d, want 1", len(gotDebts))
	}
}

func TestGetReceiptNotFound(t *testing.T) {
	s := New()

	_, err := s.GetReceipt(context.Background(), id.NewReceiptID())
	if !errors.Is(err, squadledger.ErrReceiptNotFound) {
		t.Errorf("GetReceipt() error = %v, want ErrReceiptNotFound", err)
	}
}

func TestResaveReplacesDebts(t *testing.T) {
	s := New()
	ctx := context.Background()

	r := newReceipt("user-1", 10000)
	if err := s.SaveReceipt(ctx, r, []*receipt.Debt{
		newDebt(r.ID, "user-2", types.Resolved(4000)),
		newDebt(r.ID, "user-3", types.Resolved(6000)),
	}); err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	if err := s.SaveReceipt(ctx, r, []*receipt.Debt{
		newDebt(r.ID, "user-2", types.Resolved(10000)),
	}); err != nil {
		t.Fatalf("SaveReceipt() re-save error = %v", err)
	}

	debts, err := s.GetDebts(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetDebts() error = %v", err)
	}
	if len(debts) != 1 {
		t.Fatalf("len(debts) after re-save = %d, want 1", len(debts))
	}
	if debts[0].DebtorID != "user-2" {
		t.Errorf("DebtorID = %q, want %q", debts[0].DebtorID, "user-2")
	}

	groups, err := s.AggregateDebts(ctx, receipt.DebtFilter{ToUserID: "user-1"})
	if err != nil {
		t.Fatalf("AggregateDebts() error = %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}
	if groups[0].ResolvedTotal != 10000 {
		t.Errorf("ResolvedTotal = %d, want 10000", groups[0].ResolvedTotal)
	}
}

func TestDeleteReceiptExcludesDebts(t *testing.T) {
	s := New()
	ctx := context.Background()

	r := newReceipt("user-1", 10000)
	if err := s.SaveReceipt(ctx, r, []*receipt.Debt{
		newDebt(r.ID, "user-2", types.Resolved(10000)),
	}); err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	if err := s.DeleteReceipt(ctx, r.ID); err != nil {
		t.Fatalf("DeleteReceipt() error = %v", err)
	}

	if _, err := s.GetReceipt(ctx, r.ID); !errors.Is(err, squadledger.ErrReceiptNotFound) {
		t.Errorf("GetReceipt() after delete error = %v, want ErrReceiptNotFound", err)
	}

	groups, err := s.AggregateDebts(ctx, receipt.DebtFilter{})
	if err != nil {
		t.Fatalf("AggregateDebts() error = %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("len(groups) after delete = %d, want 0", len(groups))
	}

	if err := s.DeleteReceipt(ctx, r.ID); !errors.Is(err, squadledger.ErrReceiptNotFound) {
		t.Errorf("DeleteReceipt() twice error = %v, want ErrReceiptNotFound", err)
	}
}

func TestAggregateDebtsFilters(t *testing.T) {
	s := New()
	ctx := context.Background()

	r1 := newReceipt("user-1", 10000)
	if err := s.SaveReceipt(ctx, r1, []*receipt.Debt{
		newDebt(r1.ID, "user-2", types.Resolved(6000)),
		newDebt(r1.ID, "user-3", types.Resolved(4000)),
	}); err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	r2 := newReceipt("user-2", 5000)
	if err := s.SaveReceipt(ctx, r2, []*receipt.Debt{
		newDebt(r2.ID, "user-1", types.Resolved(5000)),
	}); err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	groups, err := s.AggregateDebts(ctx, receipt.DebtFilter{ToUserID: "user-1"})
	if err != nil {
		t.Fatalf("AggregateDebts(to=user-1) error = %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}

	groups, err = s.AggregateDebts(ctx, receipt.DebtFilter{FromUserID: "user-1"})
	if err != nil {
		t.Fatalf("AggregateDebts(from=user-1) error = %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}
	if groups[0].ToUserID != "user-2" || groups[0].ResolvedTotal != 5000 {
		t.Errorf("group = %+v, want to=user-2 total=5000", groups[0])
	}
}

func TestAggregateDebtsUnresolvedShares(t *testing.T) {
	s := New()
	ctx := context.Background()

	r := newReceipt("user-1", 10000)
	if err := s.SaveReceipt(ctx, r, []*receipt.Debt{
		newDebt(r.ID, "user-2", types.Resolved(4000)),
		newDebt(r.ID, "user-2", types.Unresolved()),
	}); err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	groups, err := s.AggregateDebts(ctx, receipt.DebtFilter{ToUserID: "user-1"})
	if err != nil {
		t.Fatalf("AggregateDebts() error = %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}

	g := groups[0]
	if g.ResolvedTotal != 4000 {
		t.Errorf("ResolvedTotal = %d, want 4000", g.ResolvedTotal)
	}
	if !g.Incomplete() {
		t.Error("Incomplete() = false, want true")
	}
	if len(g.IncompleteReceiptIDs) != 1 || g.IncompleteReceiptIDs[0] != r.ID {
		t.Errorf("IncompleteReceiptIDs = %v, want [%v]", g.IncompleteReceiptIDs, r.ID)
	}
}

func TestListReceiptsByParticipant(t *testing.T) {
	s := New()
	ctx := context.Background()

	r1 := newReceipt("user-1", 10000)
	if err := s.SaveReceipt(ctx, r1, []*receipt.Debt{
		newDebt(r1.ID, "user-2", types.Resolved(10000)),
	}); err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	r2 := newReceipt("user-3", 5000)
	if err := s.SaveReceipt(ctx, r2, []*receipt.Debt{
		newDebt(r2.ID, "user-4", types.Resolved(5000)),
	}); err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	for _, userID := range []string{"user-1", "user-2"} {
		list, err := s.ListReceiptsByParticipant(ctx, userID, receipt.ListOpts{})
		if err != nil {
			t.Fatalf("ListReceiptsByParticipant(%s) error = %v", userID, err)
		}
		if len(list) != 1 || list[0].ID != r1.ID {
			t.Errorf("ListReceiptsByParticipant(%s) = %v, want [r1]", userID, list)
		}
	}

	list, err := s.ListReceiptsByParticipant(ctx, "user-5", receipt.ListOpts{})
	if err != nil {
		t.Fatalf("ListReceiptsByParticipant(user-5) error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("len(list) = %d, want 0", len(list))
	}
}

func TestPaymentLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	p := &payment.Payment{
		Entity:     types.NewEntity(),
		ID:         id.NewPaymentID(),
		FromUserID: "user-2",
		ToUserID:   "user-1",
		Amount:     types.UAH(5000),
	}

	if err := s.CreatePayment(ctx, p); err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}

	got, err := s.GetPayment(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPayment() error = %v", err)
	}
	if got.FromUserID != "user-2" || got.ToUserID != "user-1" {
		t.Errorf("payment = %+v", got)
	}

	groups, err := s.AggregatePayments(ctx, payment.Filter{ToUserID: "user-1"})
	if err != nil {
		t.Fatalf("AggregatePayments() error = %v", err)
	}
	if len(groups) != 1 || groups[0].Total != 5000 {
		t.Errorf("groups = %v, want one group with total 5000", groups)
	}

	if err := s.DeletePayment(ctx, p.ID); err != nil {
		t.Fatalf("DeletePayment() error = %v", err)
	}

	if _, err := s.GetPayment(ctx, p.ID); !errors.Is(err, squadledger.ErrPaymentNotFound) {
		t.Errorf("GetPayment() after delete error = %v, want ErrPaymentNotFound", err)
	}

	groups, err = s.AggregatePayments(ctx, payment.Filter{ToUserID: "user-1"})
	if err != nil {
		t.Fatalf("AggregatePayments() error = %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("len(groups) after delete = %d, want 0", len(groups))
	}
}

func TestListPaymentsPagination(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := &payment.Payment{
			Entity:     types.NewEntity(),
			ID:         id.NewPaymentID(),
			FromUserID: "user-1",
			ToUserID:   "user-2",
			Amount:     types.UAH(int64(1000 * (i + 1))),
		}
		if err := s.CreatePayment(ctx, p); err != nil {
			t.Fatalf("CreatePayment() error = %v", err)
		}
	}

	page, err := s.ListPaymentsByParticipant(ctx, "user-1", payment.ListOpts{Limit: 2})
	if err != nil {
		t.Fatalf("ListPaymentsByParticipant() error = %v", err)
	}
	if len(page) != 2 {
		t.Errorf("len(page) = %d, want 2", len(page))
	}

	rest, err := s.ListPaymentsByParticipant(ctx, "user-1", payment.ListOpts{Offset: 4, Limit: 10})
	if err != nil {
		t.Fatalf("ListPaymentsByParticipant() error = %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("len(rest) = %d, want 1", len(rest))
	}
}
