package payroll

const (
	PeriodStatusDraft      = "draft"
	PeriodStatusCalculated = "calculated"
	PeriodStatusProcessing = "processing"
	PeriodStatusPaid       = "paid"

	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusPaid     = "paid"

	EmailStatusUnsent    = "unsent"
	EmailStatusSent      = "sent"
	EmailStatusFailed    = "failed"
	EmailStatusSimulated = "simulated"

	RuleKindFixed      = "fixed"
	RuleKindPercentage = "percentage"

	ReasonNoAddress = "no address"
)
