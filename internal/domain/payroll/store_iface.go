package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

type StoreAPI interface {
	CreatePeriod(ctx context.Context, period PayPeriod) error
	GetPeriod(ctx context.Context, period string) (PayPeriod, error)
	ListPeriods(ctx context.Context) ([]PayPeriod, error)
	// TransitionPeriod flips the status from `from` to `to` in a single
	// conditional update and reports whether this caller won the write.
	TransitionPeriod(ctx context.Context, period, from, to string) (bool, error)
	MarkPeriodCalculated(ctx context.Context, period string, totalEmployees int, totalAmount decimal.Decimal) error
	FinalizePeriodPaid(ctx context.Context, period, paidBy string, emailsSent, emailsFailed int) error
	RefreshEmailCounts(ctx context.Context, period string) (sent, failed int, err error)

	ListActiveConfigs(ctx context.Context) ([]SalaryConfig, error)

	UpsertPayment(ctx context.Context, payment SalaryPayment) error
	GetPayment(ctx context.Context, employeeID, period string) (SalaryPayment, error)
	ListPayments(ctx context.Context, period string) ([]SalaryPayment, error)
	ListRecipients(ctx context.Context, period string) ([]Recipient, error)
	ListUndeliveredRecipients(ctx context.Context, period string) ([]Recipient, error)
	RecordEmailSent(ctx context.Context, employeeID, period, status, messageID string) error
	RecordEmailFailure(ctx context.Context, employeeID, period, reason string, attempted bool) error
}
