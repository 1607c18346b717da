package balance_test

import (
	"testing"

	"github.com/vitaly-rudenko/squadledger/balance"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/receipt"
	"github.com/vitaly-rudenko/squadledger/types"
)

const currency = "uah"

func entry(from, to string, amount int64, ids ...id.ReceiptID) balance.AggregatedDebt {
	return balance.AggregatedDebt{
		FromUserID:           from,
		ToUserID:             to,
		Amount:               types.Money{Amount: amount, Currency: currency},
		IncompleteReceiptIDs: ids,
	}
}

func assertEntries(t *testing.T, name string, got, want []balance.AggregatedDebt) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("%s: got %d entries (%v), want %d (%v)", name, len(got), got, len(want), want)
	}
	for i := range want {
		if got[i].FromUserID != want[i].FromUserID || got[i].ToUserID != want[i].ToUserID {
			t.Errorf("%s[%d]: got %s→%s, want %s→%s",
				name, i, got[i].FromUserID, got[i].ToUserID, want[i].FromUserID, want[i].ToUserID)
		}
		if !got[i].Amount.Equal(want[i].Amount) {
			t.Errorf("%s[%d]: got amount %v, want %v", name, i, got[i].Amount, want[i].Amount)
		}
		if len(got[i].IncompleteReceiptIDs) != len(want[i].IncompleteReceiptIDs) {
			t.Errorf("%s[%d]: got incomplete ids %v, want %v",
				name, i, got[i].IncompleteReceiptIDs, want[i].IncompleteReceiptIDs)
			continue
		}
		for j := range want[i].IncompleteReceiptIDs {
			if got[i].IncompleteReceiptIDs[j] != want[i].IncompleteReceiptIDs[j] {
				t.Errorf("%s[%d]: got incomplete ids %v, want %v",
					name, i, got[i].IncompleteReceiptIDs, want[i].IncompleteReceiptIDs)
				break
			}
		}
	}
}

// Scenario: user1 pays a receipt split {user1: 5, user2: 5}; the payer's
// own share never appears, user2 owes 5; a direct payment of 5 settles it.
func TestAggregateSimpleSplitAndSettlement(t *testing.T) {
	ingoing := []receipt.DebtGroup{{FromUserID: "user2", ToUserID: "user1", ResolvedTotal: 5}}

	summary := balance.Aggregate("user1", currency, ingoing, nil, nil, nil)
	assertEntries(t, "ingoing", summary.IngoingDebts, []balance.AggregatedDebt{entry("user2", "user1", 5)})
	assertEntries(t, "outgoing", summary.OutgoingDebts, nil)
	if len(summary.IncompleteReceiptIDs) != 0 {
		t.Errorf("unexpected incomplete receipts: %v", summary.IncompleteReceiptIDs)
	}

	// After payment(user2→user1, 5) the pair nets to zero on both sides.
	payments := []payment.Group{{FromUserID: "user2", ToUserID: "user1", Total: 5}}

	summary = balance.Aggregate("user1", currency, ingoing, nil, payments, nil)
	assertEntries(t, "ingoing", summary.IngoingDebts, nil)
	assertEntries(t, "outgoing", summary.OutgoingDebts, nil)

	outgoing := []receipt.DebtGroup{{FromUserID: "user2", ToUserID: "user1", ResolvedTotal: 5}}
	summary = balance.Aggregate("user2", currency, nil, outgoing, nil, payments)
	assertEntries(t, "ingoing", summary.IngoingDebts, nil)
	assertEntries(t, "outgoing", summary.OutgoingDebts, nil)
}

// Scenario: user1 pays {user1: 10, user2: 15, user3: 5}; partial payments
// from user3 whittle its balance down to zero while user2's persists.
func TestAggregatePartialSettlement(t *testing.T) {
	ingoing := []receipt.DebtGroup{
		{FromUserID: "user2", ToUserID: "user1", ResolvedTotal: 15},
		{FromUserID: "user3", ToUserID: "user1", ResolvedTotal: 5},
	}

	summary := balance.Aggregate("user1", currency, ingoing, nil, nil, nil)
	assertEntries(t, "ingoing", summary.IngoingDebts, []balance.AggregatedDebt{
		entry("user2", "user1", 15),
		entry("user3", "user1", 5),
	})

	payments := []payment.Group{{FromUserID: "user3", ToUserID: "user1", Total: 4}}
	summary = balance.Aggregate("user1", currency, ingoing, nil, payments, nil)
	assertEntries(t, "ingoing", summary.IngoingDebts, []balance.AggregatedDebt{
		entry("user2", "user1", 15),
		entry("user3", "user1", 1),
	})

	payments = []payment.Group{{FromUserID: "user3", ToUserID: "user1", Total: 5}}
	summary = balance.Aggregate("user1", currency, ingoing, nil, payments, nil)
	assertEntries(t, "ingoing", summary.IngoingDebts, []balance.AggregatedDebt{
		entry("user2", "user1", 15),
	})
}

// Scenario: receipt of 20 split {user1: 10, user2: unresolved}. The
// unresolved share must surface as a zero-amount incomplete entry, never
// as a numeric zero contribution.
func TestAggregateUnresolvedShare(t *testing.T) {
	rid := id.NewReceiptID()
	ingoing := []receipt.DebtGroup{
		{FromUserID: "user2", ToUserID: "user1", IncompleteReceiptIDs: []id.ReceiptID{rid}},
	}

	summary := balance.Aggregate("user1", currency, ingoing, nil, nil, nil)
	assertEntries(t, "ingoing", summary.IngoingDebts, []balance.AggregatedDebt{
		entry("user2", "user1", 0, rid),
	})
	assertEntries(t, "outgoing", summary.OutgoingDebts, nil)
	if len(summary.IncompleteReceiptIDs) != 1 || summary.IncompleteReceiptIDs[0] != rid {
		t.Errorf("top-level incomplete ids: got %v, want [%s]", summary.IncompleteReceiptIDs, rid)
	}
}

// Scenario: a payment with no receipts at all still produces a balance —
// the receiver now owes the sender.
func TestAggregatePaymentWithoutReceipts(t *testing.T) {
	payments := []payment.Group{{FromUserID: "user1", ToUserID: "user2", Total: 10}}

	summary := balance.Aggregate("user1", currency, nil, nil, nil, payments)
	assertEntries(t, "ingoing", summary.IngoingDebts, []balance.AggregatedDebt{entry("user2", "user1", 10)})
	assertEntries(t, "outgoing", summary.OutgoingDebts, nil)

	ingoingPayments := []payment.Group{{FromUserID: "user1", ToUserID: "user2", Total: 10}}
	summary = balance.Aggregate("user2", currency, nil, nil, ingoingPayments, nil)
	assertEntries(t, "ingoing", summary.IngoingDebts, nil)
	assertEntries(t, "outgoing", summary.OutgoingDebts, []balance.AggregatedDebt{entry("user2", "user1", 10)})
}

// Two users' views of the same fully-specified records must mirror each
// other: same amount, swapped direction.
func TestAggregateZeroSum(t *testing.T) {
	// user1 paid 30 for user2; user2 paid 12 for user1; user2 settled 10.
	user1Ingoing := []receipt.DebtGroup{{FromUserID: "user2", ToUserID: "user1", ResolvedTotal: 30}}
	user1Outgoing := []receipt.DebtGroup{{FromUserID: "user1", ToUserID: "user2", ResolvedTotal: 12}}
	user1Received := []payment.Group{{FromUserID: "user2", ToUserID: "user1", Total: 10}}

	user1 := balance.Aggregate("user1", currency, user1Ingoing, user1Outgoing, user1Received, nil)
	assertEntries(t, "user1 ingoing", user1.IngoingDebts, []balance.AggregatedDebt{entry("user2", "user1", 8)})
	assertEntries(t, "user1 outgoing", user1.OutgoingDebts, nil)

	user2 := balance.Aggregate("user2", currency, user1Outgoing, user1Ingoing, nil, user1Received)
	assertEntries(t, "user2 ingoing", user2.IngoingDebts, nil)
	assertEntries(t, "user2 outgoing", user2.OutgoingDebts, []balance.AggregatedDebt{entry("user2", "user1", 8)})
}

// A payment that exactly offsets a debt removes the pair from the result,
// unless an unrelated incomplete receipt keeps a zero-amount entry alive.
func TestAggregateCancellationKeepsIncomplete(t *testing.T) {
	rid := id.NewReceiptID()
	ingoing := []receipt.DebtGroup{
		{FromUserID: "user2", ToUserID: "user1", ResolvedTotal: 7},
		{FromUserID: "user2", ToUserID: "user1", IncompleteReceiptIDs: []id.ReceiptID{rid}},
	}
	payments := []payment.Group{{FromUserID: "user2", ToUserID: "user1", Total: 7}}

	summary := balance.Aggregate("user1", currency, ingoing, nil, payments, nil)
	assertEntries(t, "ingoing", summary.IngoingDebts, []balance.AggregatedDebt{
		entry("user2", "user1", 0, rid),
	})
	assertEntries(t, "outgoing", summary.OutgoingDebts, nil)
}

// A non-zero net in one direction must not swallow unresolved shares
// recorded in the opposite direction.
func TestAggregateOppositeDirectionIncomplete(t *testing.T) {
	rid := id.NewReceiptID()
	ingoing := []receipt.DebtGroup{{FromUserID: "user2", ToUserID: "user1", ResolvedTotal: 9}}
	outgoing := []receipt.DebtGroup{
		{FromUserID: "user1", ToUserID: "user2", IncompleteReceiptIDs: []id.ReceiptID{rid}},
	}

	summary := balance.Aggregate("user1", currency, ingoing, outgoing, nil, nil)
	assertEntries(t, "ingoing", summary.IngoingDebts, []balance.AggregatedDebt{entry("user2", "user1", 9)})
	assertEntries(t, "outgoing", summary.OutgoingDebts, []balance.AggregatedDebt{
		entry("user1", "user2", 0, rid),
	})
	if len(summary.IncompleteReceiptIDs) != 1 {
		t.Errorf("top-level incomplete ids: got %v, want one id", summary.IncompleteReceiptIDs)
	}
}

// Self-referential rows must never contribute to any balance.
func TestAggregateSelfDebtExcluded(t *testing.T) {
	ingoing := []receipt.DebtGroup{
		{FromUserID: "user1", ToUserID: "user1", ResolvedTotal: 100},
		{FromUserID: "user2", ToUserID: "user1", ResolvedTotal: 5},
	}

	summary := balance.Aggregate("user1", currency, ingoing, nil, nil, nil)
	assertEntries(t, "ingoing", summary.IngoingDebts, []balance.AggregatedDebt{entry("user2", "user1", 5)})
}

func TestAggregateEmpty(t *testing.T) {
	summary := balance.Aggregate("user1", currency, nil, nil, nil, nil)

	if len(summary.IngoingDebts) != 0 || len(summary.OutgoingDebts) != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
	if len(summary.IncompleteReceiptIDs) != 0 {
		t.Errorf("expected no incomplete receipts, got %v", summary.IncompleteReceiptIDs)
	}
}

func TestAggregateDeterministicOrder(t *testing.T) {
	ingoing := []receipt.DebtGroup{
		{FromUserID: "zoe", ToUserID: "user1", ResolvedTotal: 1},
		{FromUserID: "adam", ToUserID: "user1", ResolvedTotal: 2},
		{FromUserID: "mira", ToUserID: "user1", ResolvedTotal: 3},
	}

	summary := balance.Aggregate("user1", currency, ingoing, nil, nil, nil)
	assertEntries(t, "ingoing", summary.IngoingDebts, []balance.AggregatedDebt{
		entry("adam", "user1", 2),
		entry("mira", "user1", 3),
		entry("zoe", "user1", 1),
	})
}
