package squadledger

import "github.com/vitaly-rudenko/squadledger/id"

// ID is the primary identifier type for all ledger entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
