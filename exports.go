package squadledger

import "github.com/vitaly-rudenko/squadledger/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Amount is re-exported from types package.
type Amount = types.Amount

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	UAH  = types.UAH
	USD  = types.USD
	EUR  = types.EUR
	GBP  = types.GBP
	PLN  = types.PLN
	Zero = types.Zero
	Sum  = types.Sum
)

// Re-export Amount constructors
var (
	Resolved   = types.Resolved
	Unresolved = types.Unresolved
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
