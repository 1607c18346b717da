package squadledger

import (
	"github.com/vitaly-rudenko/squadledger/receipt"
	"github.com/vitaly-rudenko/squadledger/types"
)

// validateReceipt checks a receipt save before anything is written.
//
// The sum check only applies when every split is resolved: an unresolved
// share means "not decided yet", not zero, so a partially filled-in split
// is never rejected for not adding up.
func validateReceipt(payerID string, amount types.Money, splits []receipt.Split, editorID string) error {
	if payerID == "" {
		return ValidationError{Field: "payer_id", Message: "must not be empty"}
	}
	if editorID == "" {
		return ValidationError{Field: "editor_id", Message: "must not be empty"}
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if len(splits) == 0 {
		return ErrEmptySplit
	}

	seen := make(map[string]struct{}, len(splits))
	allResolved := true
	var sum int64

	for _, split := range splits {
		if split.DebtorID == "" {
			return ValidationError{Field: "debtor_id", Message: "must not be empty"}
		}
		if _, ok := seen[split.DebtorID]; ok {
			return ErrDuplicateDebtor
		}
		seen[split.DebtorID] = struct{}{}

		v, resolved := split.Amount.Int64()
		if !resolved {
			allResolved = false
			continue
		}
		if v < 0 {
			return ErrInvalidAmount
		}
		sum += v
	}

	if allResolved && sum != amount.Amount {
		return ErrAmountMismatch
	}

	if editorID != payerID {
		if _, ok := seen[editorID]; !ok {
			return ErrNotAParticipant
		}
	}

	return nil
}

// validatePayment checks a payment before it is recorded.
func validatePayment(fromUserID, toUserID string, amount types.Money) error {
	if fromUserID == "" {
		return ValidationError{Field: "from_user_id", Message: "must not be empty"}
	}
	if toUserID == "" {
		return ValidationError{Field: "to_user_id", Message: "must not be empty"}
	}
	if fromUserID == toUserID {
		return ErrSelfPayment
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
