package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// Amount is a debt share that may not have been decided yet.
//
// A debt on a freshly saved receipt can be left open ("we'll figure out
// your part later"); that state must survive aggregation without ever
// being coerced to zero. Amount makes the two states explicit:
// Resolved(n) carries a non-negative value in minor currency units,
// Unresolved() carries no value at all.
//
// The zero value of Amount is Unresolved.
type Amount struct {
	value    int64
	resolved bool
}

// Resolved returns an Amount carrying the given value in minor units.
func Resolved(value int64) Amount {
	return Amount{value: value, resolved: true}
}

// Unresolved returns an Amount whose value has not been decided yet.
func Unresolved() Amount {
	return Amount{}
}

// IsResolved reports whether the amount has a decided value.
func (a Amount) IsResolved() bool { return a.resolved }

// Int64 returns the decided value and true, or 0 and false for an
// unresolved amount. The 0 must never be used as a numeric contribution.
func (a Amount) Int64() (int64, bool) {
	if !a.resolved {
		return 0, false
	}
	return a.value, true
}

// Equal returns true if both amounts are in the same state with the same value.
func (a Amount) Equal(other Amount) bool {
	return a.resolved == other.resolved && a.value == other.value
}

// String returns the decimal value, or "unresolved".
func (a Amount) String() string {
	if !a.resolved {
		return "unresolved"
	}
	return strconv.FormatInt(a.value, 10)
}

// MarshalJSON encodes a resolved amount as its integer value and an
// unresolved amount as JSON null, matching the wire contract.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.resolved {
		return []byte("null"), nil
	}
	return json.Marshal(a.value)
}

// UnmarshalJSON decodes an integer into a resolved amount and null into
// an unresolved one.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Unresolved()
		return nil
	}

	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("types: unmarshal amount: %w", err)
	}
	*a = Resolved(v)
	return nil
}

// Value implements driver.Valuer. Unresolved amounts store as SQL NULL.
func (a Amount) Value() (driver.Value, error) {
	if !a.resolved {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}
	return a.value, nil
}

// Scan implements sql.Scanner. SQL NULL scans as an unresolved amount.
func (a *Amount) Scan(src any) error {
	if src == nil {
		*a = Unresolved()
		return nil
	}

	switch v := src.(type) {
	case int64:
		*a = Resolved(v)
		return nil
	case int32:
		*a = Resolved(int64(v))
		return nil
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("types: scan amount %q: %w", v, err)
		}
		*a = Resolved(n)
		return nil
	default:
		return fmt.Errorf("types: cannot scan %T into Amount", src)
	}
}
