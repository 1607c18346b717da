package balance

import (
	"sort"

	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/receipt"
	"github.com/vitaly-rudenko/squadledger/types"
)

// Aggregate nets grouped debts and payments into one Summary for userID.
//
// It is a pure function: no store access, no mutation of its inputs, the
// same rows always produce the same summary. The inputs are scoped to
// userID by the caller:
//
//   - ingoingDebts: groups on receipts paid by userID (FromUserID is the
//     debtor, ToUserID == userID)
//   - outgoingDebts: groups where userID is the debtor (FromUserID ==
//     userID, ToUserID is the payer)
//   - ingoingPayments: payments received by userID
//   - outgoingPayments: payments sent by userID
//
// Sign convention: a positive running balance means the counterpart owes
// userID. A payment received from X discharges what X owed (balance[X]
// decreases); a payment sent to X increases what X owes back.
// Unresolved shares never contribute numerically; their receipt ids are
// tracked per directed pair and survive even when the numbers cancel.
func Aggregate(
	userID, currency string,
	ingoingDebts, outgoingDebts []receipt.DebtGroup,
	ingoingPayments, outgoingPayments []payment.Group,
) *Summary {
	balances := make(map[string]int64)
	incomplete := make(map[Pair][]id.ReceiptID)

	for _, g := range ingoingDebts {
		counterpart := g.FromUserID
		if counterpart == userID {
			continue
		}
		balances[counterpart] += g.ResolvedTotal
		if g.Incomplete() {
			key := Pair{From: counterpart, To: userID}
			incomplete[key] = append(incomplete[key], g.IncompleteReceiptIDs...)
		}
	}

	for _, g := range outgoingDebts {
		counterpart := g.ToUserID
		if counterpart == userID {
			continue
		}
		balances[counterpart] -= g.ResolvedTotal
		if g.Incomplete() {
			key := Pair{From: userID, To: counterpart}
			incomplete[key] = append(incomplete[key], g.IncompleteReceiptIDs...)
		}
	}

	for _, g := range ingoingPayments {
		if g.FromUserID == userID {
			continue
		}
		balances[g.FromUserID] -= g.Total
	}

	for _, g := range outgoingPayments {
		if g.ToUserID == userID {
			continue
		}
		balances[g.ToUserID] += g.Total
	}

	counterparts := make(map[string]struct{}, len(balances))
	for c := range balances {
		counterparts[c] = struct{}{}
	}
	for key := range incomplete {
		if key.From != userID {
			counterparts[key.From] = struct{}{}
		}
		if key.To != userID {
			counterparts[key.To] = struct{}{}
		}
	}

	summary := &Summary{
		IngoingDebts:  []AggregatedDebt{},
		OutgoingDebts: []AggregatedDebt{},
	}

	ordered := make([]string, 0, len(counterparts))
	for c := range counterparts {
		ordered = append(ordered, c)
	}
	sort.Strings(ordered)

	var allIncomplete []id.ReceiptID

	for _, counterpart := range ordered {
		net := balances[counterpart]
		ingoingIDs := sortedUnique(incomplete[Pair{From: counterpart, To: userID}])
		outgoingIDs := sortedUnique(incomplete[Pair{From: userID, To: counterpart}])
		allIncomplete = append(allIncomplete, ingoingIDs...)
		allIncomplete = append(allIncomplete, outgoingIDs...)

		switch {
		case net > 0:
			summary.IngoingDebts = append(summary.IngoingDebts, AggregatedDebt{
				FromUserID:           counterpart,
				ToUserID:             userID,
				Amount:               types.Money{Amount: net, Currency: currency},
				IncompleteReceiptIDs: ingoingIDs,
			})
			if len(outgoingIDs) > 0 {
				summary.OutgoingDebts = append(summary.OutgoingDebts, AggregatedDebt{
					FromUserID:           userID,
					ToUserID:             counterpart,
					Amount:               types.Zero(currency),
					IncompleteReceiptIDs: outgoingIDs,
				})
			}
		case net < 0:
			summary.OutgoingDebts = append(summary.OutgoingDebts, AggregatedDebt{
				FromUserID:           userID,
				ToUserID:             counterpart,
				Amount:               types.Money{Amount: -net, Currency: currency},
				IncompleteReceiptIDs: outgoingIDs,
			})
			if len(ingoingIDs) > 0 {
				summary.IngoingDebts = append(summary.IngoingDebts, AggregatedDebt{
					FromUserID:           counterpart,
					ToUserID:             userID,
					Amount:               types.Zero(currency),
					IncompleteReceiptIDs: ingoingIDs,
				})
			}
		default:
			// Numbers cancelled (or never existed); incompleteness must
			// still surface so callers can prompt for the missing shares.
			if len(ingoingIDs) > 0 {
				summary.IngoingDebts = append(summary.IngoingDebts, AggregatedDebt{
					FromUserID:           counterpart,
					ToUserID:             userID,
					Amount:               types.Zero(currency),
					IncompleteReceiptIDs: ingoingIDs,
				})
			}
			if len(outgoingIDs) > 0 {
				summary.OutgoingDebts = append(summary.OutgoingDebts, AggregatedDebt{
					FromUserID:           userID,
					ToUserID:             counterpart,
					Amount:               types.Zero(currency),
					IncompleteReceiptIDs: outgoingIDs,
				})
			}
		}
	}

	summary.IncompleteReceiptIDs = sortedUnique(allIncomplete)

	return summary
}

func sortedUnique(ids []id.ReceiptID) []id.ReceiptID {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(ids))
	result := make([]id.ReceiptID, 0, len(ids))
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
