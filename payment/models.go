// Package payment defines direct settlements between two users,
// independent of any receipt.
package payment

import (
	"sort"

	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/types"
)

// Payment records a direct money transfer from one user to another.
// Payments are immutable once created; they can only be deleted.
type Payment struct {
	types.Entity
	ID         id.PaymentID `json:"id"`
	FromUserID string       `json:"from_user_id"`
	ToUserID   string       `json:"to_user_id"`
	Amount     types.Money  `json:"amount"`
}

// ListOpts controls pagination for payment listings.
type ListOpts struct {
	Limit  int
	Offset int
}

// Filter scopes an aggregated payment query; empty fields are unconstrained.
type Filter struct {
	FromUserID string
	ToUserID   string
}

// Group is one (sender, receiver) pair of an aggregated payment query,
// soft-deleted rows excluded.
type Group struct {
	FromUserID string
	ToUserID   string
	Total      int64 // minor currency units
}

// GroupPayments folds payments into per-(sender, receiver) totals.
// Output order is deterministic: sorted by sender, then receiver.
func GroupPayments(payments []*Payment) []Group {
	type pair struct{ from, to string }

	totals := make(map[pair]int64)
	for _, p := range payments {
		totals[pair{from: p.FromUserID, to: p.ToUserID}] += p.Amount.Amount
	}

	result := make([]Group, 0, len(totals))
	for key, total := range totals {
		result = append(result, Group{FromUserID: key.from, ToUserID: key.to, Total: total})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].FromUserID != result[j].FromUserID {
			return result[i].FromUserID < result[j].FromUserID
		}
		return result[i].ToUserID < result[j].ToUserID
	})

	return result
}
