package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"hrpay/internal/domain/attendance"
)

// Rule is a single allowance or deduction entry from a salary config.
// Fixed rules carry an absolute amount, percentage rules a rate applied to
// the base salary.
type Rule struct {
	Name   string
	Amount decimal.Decimal
	Kind   string
}

// SalaryConfig is the per-employee pay policy. Owned by HR administration,
// read-only here. Allowances and deductions arrive as raw JSON columns and
// are parsed leniently by ParseRules.
type SalaryConfig struct {
	EmployeeID         string
	BaseSalary         decimal.Decimal
	TaxRate            decimal.Decimal
	SocialSecurityRate decimal.Decimal
	WorkingDays        int
	DailyHours         int
	OvertimeMultiplier decimal.Decimal
	BonusFixed         decimal.Decimal
	BonusVariable      decimal.Decimal
	OtherDeductions    decimal.Decimal
	AllowancesJSON     []byte
	DeductionsJSON     []byte
}

type PayPeriod struct {
	Period         string          `json:"period"`
	Status         string          `json:"status"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	TotalEmployees int             `json:"totalEmployees"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	PaidBy         string          `json:"paidBy,omitempty"`
	EmailsSent     int             `json:"emailsSent"`
	EmailsFailed   int             `json:"emailsFailed"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Breakdown is the computed compensation for one employee before
// persistence. NetSalary is derived from the unrounded gross and deduction
// terms and rounded once at the end.
type Breakdown struct {
	BaseSalary           decimal.Decimal
	OvertimeAmount       decimal.Decimal
	BonusAmount          decimal.Decimal
	TotalAllowances      decimal.Decimal
	GrossSalary          decimal.Decimal
	TaxAmount            decimal.Decimal
	SocialSecurityAmount decimal.Decimal
	OtherDeductions      decimal.Decimal
	SpecificDeductions   decimal.Decimal
	TotalDeductions      decimal.Decimal
	NetSalary            decimal.Decimal
}

type SalaryPayment struct {
	EmployeeID           string          `json:"employeeId"`
	Period               string          `json:"period"`
	BaseSalary           decimal.Decimal `json:"baseSalary"`
	GrossSalary          decimal.Decimal `json:"grossSalary"`
	OvertimeAmount       decimal.Decimal `json:"overtimeAmount"`
	BonusAmount          decimal.Decimal `json:"bonusAmount"`
	TaxAmount            decimal.Decimal `json:"taxAmount"`
	SocialSecurityAmount decimal.Decimal `json:"socialSecurityAmount"`
	OtherDeductions      decimal.Decimal `json:"otherDeductions"`
	SpecificDeductions   decimal.Decimal `json:"specificDeductionAmount"`
	TotalDeductions      decimal.Decimal `json:"totalDeductions"`
	NetSalary            decimal.Decimal `json:"netSalary"`
	PaymentStatus        string          `json:"paymentStatus"`
	EmailStatus          string          `json:"emailStatus"`
	EmailAttempts        int             `json:"emailAttempts"`
	LastError            string          `json:"lastError,omitempty"`
	MessageID            string          `json:"messageId,omitempty"`
	Notes                string          `json:"notes,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// Recipient pairs a salary payment with the directory data needed to
// deliver its payslip notice.
type Recipient struct {
	EmployeeID string
	Name       string
	Email      string
	NetSalary  decimal.Decimal
}

type DeliveryOutcome struct {
	EmployeeID string `json:"employeeId"`
	Email      string `json:"email,omitempty"`
	MessageID  string `json:"messageId,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type DeliveryResult struct {
	Sent   []DeliveryOutcome `json:"sent"`
	Failed []DeliveryOutcome `json:"failed"`
}

type EmployeeError struct {
	EmployeeID string `json:"employeeId"`
	Reason     string `json:"reason"`
}

type CalculationResult struct {
	EmployeeCount int             `json:"employeeCount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Errors        []EmployeeError `json:"errors"`
	Warnings      []string        `json:"warnings,omitempty"`
}

type MarkPaidResult struct {
	Status       string `json:"status"`
	EmailsSent   int    `json:"emailsSent"`
	EmailsFailed int    `json:"emailsFailed"`
}

type ResendResult struct {
	Resent int `json:"resent"`
	Failed int `json:"failed"`
}

// AttendanceSource answers attendance aggregate lookups for one employee
// over a date range. The pgx implementation lives in the attendance domain.
type AttendanceSource interface {
	Summary(ctx context.Context, employeeID string, start, end time.Time) (attendance.Summary, error)
}

// Mailer is the single-message send capability of the email gateway.
// Verify checks that the transport can be established at all; its failure
// is the only condition treated as fatal to a whole close operation.
type Mailer interface {
	Verify(ctx context.Context) error
	Send(ctx context.Context, to, subject, html string) (messageID string, err error)
}
