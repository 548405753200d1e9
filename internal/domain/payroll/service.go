package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"hrpay/internal/platform/metrics"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Service owns the pay period lifecycle:
//
//	draft -> calculated -> processing -> paid
//
// with processing -> calculated as the rollback edge when dispatch fails
// fatally. The processing status doubles as the mutual-exclusion flag for
// MarkPaid and is only ever set through the store's conditional update.
type Service struct {
	store      StoreAPI
	attendance AttendanceSource
	dispatcher *Dispatcher
	metrics    *metrics.Collector
	precision  int32
}

func NewService(store StoreAPI, attendance AttendanceSource, dispatcher *Dispatcher, collector *metrics.Collector, precision int32) *Service {
	return &Service{
		store:      store,
		attendance: attendance,
		dispatcher: dispatcher,
		metrics:    collector,
		precision:  precision,
	}
}

// CreatePeriod inserts a new draft period. Start and end default to the
// calendar month bounds of the period key when zero.
func (s *Service) CreatePeriod(ctx context.Context, period string, start, end time.Time) (PayPeriod, error) {
	if !periodPattern.MatchString(period) {
		return PayPeriod{}, ErrInvalidPeriod
	}
	defaultStart, defaultEnd, err := periodBounds(period)
	if err != nil {
		return PayPeriod{}, ErrInvalidPeriod
	}
	if start.IsZero() {
		start = defaultStart
	}
	if end.IsZero() {
		end = defaultEnd
	}
	if end.Before(start) {
		return PayPeriod{}, fmt.Errorf("%w: end date precedes start date", ErrInvalidPeriod)
	}

	p := PayPeriod{
		Period:      period,
		Status:      PeriodStatusDraft,
		StartDate:   start,
		EndDate:     end,
		TotalAmount: decimal.Zero,
	}
	if err := s.store.CreatePeriod(ctx, p); err != nil {
		return PayPeriod{}, err
	}
	return s.store.GetPeriod(ctx, period)
}

// Calculate recomputes every active employee's compensation for the
// period. A single employee's bad data never aborts the batch: failures
// are collected per employee and the period totals reflect successes only.
// Repeating the call on an unchanged period is idempotent because payments
// are upserts keyed on (employee, period).
func (s *Service) Calculate(ctx context.Context, period string) (CalculationResult, error) {
	if !periodPattern.MatchString(period) {
		return CalculationResult{}, ErrInvalidPeriod
	}
	p, err := s.store.GetPeriod(ctx, period)
	if err != nil {
		return CalculationResult{}, err
	}
	switch p.Status {
	case PeriodStatusDraft, PeriodStatusCalculated:
	case PeriodStatusProcessing:
		return CalculationResult{}, ErrCloseInProgress
	default:
		return CalculationResult{}, ErrAlreadyPaid
	}

	configs, err := s.store.ListActiveConfigs(ctx)
	if err != nil {
		return CalculationResult{}, err
	}

	result := CalculationResult{TotalAmount: decimal.Zero}
	for _, cfg := range configs {
		summary, err := s.attendance.Summary(ctx, cfg.EmployeeID, p.StartDate, p.EndDate)
		if err != nil {
			slog.Warn("attendance lookup failed", "employeeId", cfg.EmployeeID, "period", period, "err", err)
			result.Errors = append(result.Errors, EmployeeError{EmployeeID: cfg.EmployeeID, Reason: "attendance lookup failed: " + err.Error()})
			continue
		}

		allowances, warns := ParseRules(cfg.AllowancesJSON)
		for _, w := range warns {
			slog.Warn("allowances payload problem", "employeeId", cfg.EmployeeID, "period", period, "detail", w)
			result.Warnings = append(result.Warnings, fmt.Sprintf("employee %s allowances: %s", cfg.EmployeeID, w))
		}
		deductions, warns := ParseRules(cfg.DeductionsJSON)
		for _, w := range warns {
			slog.Warn("deductions payload problem", "employeeId", cfg.EmployeeID, "period", period, "detail", w)
			result.Warnings = append(result.Warnings, fmt.Sprintf("employee %s deductions: %s", cfg.EmployeeID, w))
		}

		breakdown, err := Compute(cfg, allowances, deductions, summary, s.precision)
		if err != nil {
			slog.Warn("compensation computation failed", "employeeId", cfg.EmployeeID, "period", period, "err", err)
			result.Errors = append(result.Errors, EmployeeError{EmployeeID: cfg.EmployeeID, Reason: err.Error()})
			continue
		}

		payment := SalaryPayment{
			EmployeeID:           cfg.EmployeeID,
			Period:               period,
			BaseSalary:           breakdown.BaseSalary,
			GrossSalary:          breakdown.GrossSalary,
			OvertimeAmount:       breakdown.OvertimeAmount,
			BonusAmount:          breakdown.BonusAmount,
			TaxAmount:            breakdown.TaxAmount,
			SocialSecurityAmount: breakdown.SocialSecurityAmount,
			OtherDeductions:      breakdown.OtherDeductions,
			SpecificDeductions:   breakdown.SpecificDeductions,
			TotalDeductions:      breakdown.TotalDeductions,
			NetSalary:            breakdown.NetSalary,
			PaymentStatus:        PaymentStatusPending,
		}
		if err := s.store.UpsertPayment(ctx, payment); err != nil {
			slog.Warn("payment upsert failed", "employeeId", cfg.EmployeeID, "period", period, "err", err)
			result.Errors = append(result.Errors, EmployeeError{EmployeeID: cfg.EmployeeID, Reason: "payment write failed: " + err.Error()})
			continue
		}

		result.EmployeeCount++
		result.TotalAmount = result.TotalAmount.Add(breakdown.NetSalary)
	}

	if err := s.store.MarkPeriodCalculated(ctx, period, result.EmployeeCount, result.TotalAmount); err != nil {
		return result, err
	}
	s.metrics.RecordCalculation(result.EmployeeCount)
	return result, nil
}

// MarkPaid closes a calculated period: it flips the status to processing
// through a compare-and-swap, dispatches the payslip notices, and
// finalizes the period as paid with the delivery counts. Partial delivery
// failure is still a successful close; only a transport that cannot be
// established (or a cancelled dispatch) rolls the period back to
// calculated.
func (s *Service) MarkPaid(ctx context.Context, period, actor string) (MarkPaidResult, error) {
	if !periodPattern.MatchString(period) {
		return MarkPaidResult{}, ErrInvalidPeriod
	}
	p, err := s.store.GetPeriod(ctx, period)
	if err != nil {
		return MarkPaidResult{}, err
	}
	switch p.Status {
	case PeriodStatusPaid:
		return MarkPaidResult{}, ErrAlreadyPaid
	case PeriodStatusDraft:
		return MarkPaidResult{}, ErrInvalidStatus
	case PeriodStatusProcessing:
		return MarkPaidResult{}, ErrCloseInProgress
	}

	won, err := s.store.TransitionPeriod(ctx, period, PeriodStatusCalculated, PeriodStatusProcessing)
	if err != nil {
		return MarkPaidResult{}, err
	}
	if !won {
		return MarkPaidResult{}, ErrCloseInProgress
	}

	rollback := func() {
		// The dispatch may have failed because the request context was
		// cancelled; the rollback write must still go through or the period
		// stays wedged in processing.
		rctx := context.WithoutCancel(ctx)
		if _, err := s.store.TransitionPeriod(rctx, period, PeriodStatusProcessing, PeriodStatusCalculated); err != nil {
			slog.Error("rollback to calculated failed, period left in processing", "period", period, "err", err)
		}
	}

	recipients, err := s.store.ListRecipients(ctx, period)
	if err != nil {
		rollback()
		return MarkPaidResult{}, err
	}
	if len(recipients) == 0 {
		rollback()
		return MarkPaidResult{}, ErrNoPayments
	}

	if err := s.dispatcher.Preflight(ctx); err != nil {
		rollback()
		return MarkPaidResult{}, err
	}

	delivery, err := s.dispatcher.Deliver(ctx, period, recipients)
	if err != nil {
		rollback()
		return MarkPaidResult{}, err
	}

	sent, failed := len(delivery.Sent), len(delivery.Failed)
	if err := s.store.FinalizePeriodPaid(ctx, period, actor, sent, failed); err != nil {
		// No rollback here: the notices already went out and a rollback
		// would invite a duplicate dispatch. The period stays in processing
		// until an operator reconciles it.
		slog.Error("finalize failed, period left in processing, operator reconciliation required", "period", period, "err", err)
		return MarkPaidResult{}, err
	}
	s.metrics.RecordEmails(sent, failed)
	slog.Info("pay period closed", "period", period, "paidBy", actor, "emailsSent", sent, "emailsFailed", failed)
	return MarkPaidResult{Status: PeriodStatusPaid, EmailsSent: sent, EmailsFailed: failed}, nil
}

// ResendFailed re-runs delivery for the payments of an already paid period
// whose notices never went out. It does not recompute anything and leaves
// the period status untouched.
func (s *Service) ResendFailed(ctx context.Context, period string) (ResendResult, error) {
	if !periodPattern.MatchString(period) {
		return ResendResult{}, ErrInvalidPeriod
	}
	p, err := s.store.GetPeriod(ctx, period)
	if err != nil {
		return ResendResult{}, err
	}
	if p.Status != PeriodStatusPaid {
		return ResendResult{}, ErrInvalidStatus
	}

	recipients, err := s.store.ListUndeliveredRecipients(ctx, period)
	if err != nil {
		return ResendResult{}, err
	}
	if len(recipients) == 0 {
		return ResendResult{}, nil
	}

	if err := s.dispatcher.Preflight(ctx); err != nil {
		return ResendResult{}, err
	}
	delivery, err := s.dispatcher.Deliver(ctx, period, recipients)
	if err != nil {
		return ResendResult{}, err
	}

	if _, _, err := s.store.RefreshEmailCounts(ctx, period); err != nil {
		slog.Warn("refreshing email counts failed", "period", period, "err", err)
	}
	s.metrics.RecordEmails(len(delivery.Sent), len(delivery.Failed))
	return ResendResult{Resent: len(delivery.Sent), Failed: len(delivery.Failed)}, nil
}

func (s *Service) GetPeriod(ctx context.Context, period string) (PayPeriod, error) {
	if !periodPattern.MatchString(period) {
		return PayPeriod{}, ErrInvalidPeriod
	}
	return s.store.GetPeriod(ctx, period)
}

func (s *Service) ListPeriods(ctx context.Context) ([]PayPeriod, error) {
	return s.store.ListPeriods(ctx)
}

func (s *Service) GetPayment(ctx context.Context, employeeID, period string) (SalaryPayment, error) {
	if !periodPattern.MatchString(period) {
		return SalaryPayment{}, ErrInvalidPeriod
	}
	return s.store.GetPayment(ctx, employeeID, period)
}

func (s *Service) ListPayments(ctx context.Context, period string) ([]SalaryPayment, error) {
	if !periodPattern.MatchString(period) {
		return nil, ErrInvalidPeriod
	}
	return s.store.ListPayments(ctx, period)
}

func periodBounds(period string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := start.AddDate(0, 1, -1)
	return start, end, nil
}
