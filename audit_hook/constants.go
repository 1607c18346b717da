package audithook

// Action constants for audit events.
const (
	// Receipt actions
	ActionReceiptSaved   = "receipt.saved"
	ActionReceiptDeleted = "receipt.deleted"

	// Payment actions
	ActionPaymentCreated = "payment.created"
	ActionPaymentDeleted = "payment.deleted"

	// Aggregation actions
	ActionDebtsAggregated = "debts.aggregated"
)

// Resource constants for audit events.
const (
	ResourceReceipt = "receipt"
	ResourcePayment = "payment"
	ResourceBalance = "balance"
)

// Category constants for audit events.
const (
	CategoryLedger     = "ledger"
	CategorySettlement = "settlement"
	CategoryReporting  = "reporting"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
