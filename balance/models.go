// Package balance implements the debt aggregation engine: it turns
// grouped receipt-splits and direct payments into a minimal set of net
// pairwise balances per user, carrying unresolved shares through the
// netting without corrupting the arithmetic.
package balance

import (
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/types"
)

// Pair is a canonical directed counterpart key. Using a comparable
// struct instead of a concatenated string rules out separator collisions
// between user ids.
type Pair struct {
	From string
	To   string
}

// Reverse returns the pair with the direction flipped.
func (p Pair) Reverse() Pair { return Pair{From: p.To, To: p.From} }

// AggregatedDebt is one directed net balance between two users.
// Amount is non-negative; for a given unordered pair at most one
// directed entry carries a non-zero amount. IncompleteReceiptIDs lists
// the receipts that contributed an unresolved share in this direction.
type AggregatedDebt struct {
	FromUserID           string         `json:"from_user_id"`
	ToUserID             string         `json:"to_user_id"`
	Amount               types.Money    `json:"amount"`
	IncompleteReceiptIDs []id.ReceiptID `json:"incomplete_receipt_ids,omitempty"`
}

// Incomplete reports whether any unresolved share contributed to this entry.
func (d AggregatedDebt) Incomplete() bool { return len(d.IncompleteReceiptIDs) > 0 }

// Summary is the engine's output for one user. Ingoing entries are owed
// TO the user, outgoing entries are owed BY the user.
// IncompleteReceiptIDs is the deduplicated union of every receipt that
// still needs the user's attention ("please complete these receipts").
type Summary struct {
	IngoingDebts         []AggregatedDebt `json:"ingoing_debts"`
	OutgoingDebts        []AggregatedDebt `json:"outgoing_debts"`
	IncompleteReceiptIDs []id.ReceiptID   `json:"incomplete_receipt_ids,omitempty"`
}
