// Package receipt defines the receipt and debt entities: one user fronts
// money for a shared expense, split among a group of debtors.
package receipt

import (
	"sort"

	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/types"
)

// Receipt records one payer fronting money for a group of people.
// Its amount is immutable once debts reference it, except through a full
// re-save that rewrites the debts as well.
type Receipt struct {
	types.Entity
	ID          id.ReceiptID `json:"id"`
	PayerID     string       `json:"payer_id"`
	Amount      types.Money  `json:"amount"`
	Description string       `json:"description,omitempty"`
	PhotoID     string       `json:"photo_id,omitempty"` // opaque reference into external photo storage
}

// Debt is one debtor's share of one receipt. The share may still be
// unresolved ("amount not decided yet"); a receipt with at least one
// unresolved debt is an incomplete receipt.
type Debt struct {
	types.Entity
	ID        id.DebtID    `json:"id"`
	ReceiptID id.ReceiptID `json:"receipt_id"`
	DebtorID  string       `json:"debtor_id"`
	Amount    types.Amount `json:"amount"`
}

// Split is one debtor's requested share in a receipt save. The engine
// turns splits into Debt rows.
type Split struct {
	DebtorID string       `json:"debtor_id"`
	Amount   types.Amount `json:"amount"`
}

// ListOpts controls pagination for receipt listings.
type ListOpts struct {
	Limit  int
	Offset int
}

// DebtFilter scopes an aggregated debt query. FromUserID matches the
// debtor side, ToUserID the payer side; empty means unconstrained.
type DebtFilter struct {
	FromUserID string
	ToUserID   string
}

// DebtGroup is one (debtor, payer) pair of an aggregated debt query,
// already excluding self-debts and soft-deleted rows.
//
// ResolvedTotal carries the sum of the resolved shares only; receipts
// whose share for this pair is still unresolved are listed in
// IncompleteReceiptIDs instead of being counted as zero. Total exposes
// the null-propagated view of the same group.
type DebtGroup struct {
	FromUserID           string
	ToUserID             string
	ResolvedTotal        int64
	IncompleteReceiptIDs []id.ReceiptID
}

// Incomplete reports whether any contributing share is still unresolved.
func (g DebtGroup) Incomplete() bool { return len(g.IncompleteReceiptIDs) > 0 }

// Total returns the group total, unresolved when any contributing share is.
func (g DebtGroup) Total() types.Amount {
	if g.Incomplete() {
		return types.Unresolved()
	}
	return types.Resolved(g.ResolvedTotal)
}

// DebtRow is one raw (receipt, debtor) share as read from storage,
// joined with the receipt's payer. Stores produce rows; GroupRows folds
// them into DebtGroups.
type DebtRow struct {
	ReceiptID id.ReceiptID
	DebtorID  string
	PayerID   string
	Amount    types.Amount
}

// GroupRows folds raw debt rows into per-(debtor, payer) groups.
// Self-debts (debtor == payer) never contribute. Output order is
// deterministic: sorted by debtor, then payer.
func GroupRows(rows []DebtRow) []DebtGroup {
	type pair struct{ from, to string }

	groups := make(map[pair]*DebtGroup)
	for _, row := range rows {
		if row.DebtorID == row.PayerID {
			continue
		}

		key := pair{from: row.DebtorID, to: row.PayerID}
		g, ok := groups[key]
		if !ok {
			g = &DebtGroup{FromUserID: row.DebtorID, ToUserID: row.PayerID}
			groups[key] = g
		}

		if v, resolved := row.Amount.Int64(); resolved {
			g.ResolvedTotal += v
		} else {
			g.IncompleteReceiptIDs = append(g.IncompleteReceiptIDs, row.ReceiptID)
		}
	}

	result := make([]DebtGroup, 0, len(groups))
	for _, g := range groups {
		g.IncompleteReceiptIDs = dedupeReceiptIDs(g.IncompleteReceiptIDs)
		result = append(result, *g)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].FromUserID != result[j].FromUserID {
			return result[i].FromUserID < result[j].FromUserID
		}
		return result[i].ToUserID < result[j].ToUserID
	})

	return result
}

func dedupeReceiptIDs(ids []id.ReceiptID) []id.ReceiptID {
	if len(ids) < 2 {
		return ids
	}

	seen := make(map[string]struct{}, len(ids))
	result := ids[:0]
	for _, rid := range ids {
		if _, ok := seen[rid.String()]; ok {
			continue
		}
		seen[rid.String()] = struct{}{}
		result = append(result, rid)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].String() < result[j].String() })
	return result
}
