// Package squadledger provides a shared-expense debt ledger engine for Go
// applications.
//
// Squadledger is designed as a library, not a service. Import it directly
// into your Go application and drive it from whatever surface you have
// (bot, HTTP API, CLI). It provides:
//
//   - Receipts split among debtors, with first-class "amount not decided
//     yet" shares that are never silently treated as zero
//   - Direct payments between users, folded into the same balance
//   - Net pairwise balance aggregation with incomplete-receipt tracking
//   - Pluggable storage (memory, Postgres, SQLite, MongoDB)
//   - Lifecycle hooks via plugins (audit trail, metrics, Kafka events)
//
// # Quick Start
//
// Create a ledger instance with your preferred store:
//
//	import (
//	    "github.com/vitaly-rudenko/squadledger"
//	    "github.com/vitaly-rudenko/squadledger/store/memory"
//	)
//
//	l := squadledger.New(memory.New())
//
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// A receipt records one user fronting money for a group, split among
// debtors. A share may be left unresolved when the exact amount is not
// known yet:
//
//	r, err := l.SaveReceipt(ctx, squadledger.SaveReceiptInput{
//	    EditorID: "user-1",
//	    PayerID:  "user-1",
//	    Amount:   squadledger.UAH(30000), // ₴300.00 in kopiykas
//	    Splits: []receipt.Split{
//	        {DebtorID: "user-2", Amount: squadledger.Resolved(15000)},
//	        {DebtorID: "user-3", Amount: squadledger.Unresolved()},
//	    },
//	})
//
// Payments settle debts directly:
//
//	p, err := l.CreatePayment(ctx, "user-2", "user-1", squadledger.UAH(15000))
//
// AggregateDebts nets everything into per-counterpart balances:
//
//	summary, err := l.AggregateDebts(ctx, "user-1")
//	for _, d := range summary.IngoingDebts {
//	    fmt.Printf("%s owes you %s\n", d.FromUserID, d.Amount)
//	}
//
// Receipts with unresolved shares surface through IncompleteReceiptIDs on
// the summary and on the affected entries, so callers can prompt users to
// fill the amounts in rather than showing a misleading total.
//
// All monetary calculations use integer arithmetic in the smallest
// currency unit (kopiykas for UAH, cents for USD). A ledger carries a
// single currency; writes in any other currency are rejected.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	rcpt_01h2xcejqtf2nbrexx3vqjhp41  // Receipt ID
//	debt_01h2xcejqtf2nbrexx3vqjhp41  // Debt ID
//	pay_01h455vb4pex5vsknk084sn02q   // Payment ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package squadledger
