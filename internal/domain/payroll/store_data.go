package payroll

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

func (s *Store) CreatePeriod(ctx context.Context, period PayPeriod) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO pay_periods (period, status, start_date, end_date)
    VALUES ($1,$2,$3,$4)
  `, period.Period, period.Status, period.StartDate, period.EndDate)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicatePeriod
	}
	return err
}

func (s *Store) GetPeriod(ctx context.Context, period string) (PayPeriod, error) {
	var p PayPeriod
	err := s.DB.QueryRow(ctx, `
    SELECT period, status, start_date, end_date, total_employees, total_amount,
           paid_at, COALESCE(paid_by, ''), emails_sent, emails_failed, created_at
    FROM pay_periods
    WHERE period = $1
  `, period).Scan(&p.Period, &p.Status, &p.StartDate, &p.EndDate, &p.TotalEmployees, &p.TotalAmount,
		&p.PaidAt, &p.PaidBy, &p.EmailsSent, &p.EmailsFailed, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PayPeriod{}, ErrPeriodNotFound
	}
	return p, err
}

func (s *Store) ListPeriods(ctx context.Context) ([]PayPeriod, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT period, status, start_date, end_date, total_employees, total_amount,
           paid_at, COALESCE(paid_by, ''), emails_sent, emails_failed, created_at
    FROM pay_periods
    ORDER BY period DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []PayPeriod
	for rows.Next() {
		var p PayPeriod
		if err := rows.Scan(&p.Period, &p.Status, &p.StartDate, &p.EndDate, &p.TotalEmployees, &p.TotalAmount,
			&p.PaidAt, &p.PaidBy, &p.EmailsSent, &p.EmailsFailed, &p.CreatedAt); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// TransitionPeriod is the compare-and-swap guarding the close pipeline:
// the conditional update succeeds for exactly one caller when several race
// on the same from-status.
func (s *Store) TransitionPeriod(ctx context.Context, period, from, to string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE pay_periods SET status = $1 WHERE period = $2 AND status = $3
  `, to, period, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkPeriodCalculated(ctx context.Context, period string, totalEmployees int, totalAmount decimal.Decimal) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE pay_periods
    SET status = $1, total_employees = $2, total_amount = $3
    WHERE period = $4
  `, PeriodStatusCalculated, totalEmployees, totalAmount, period)
	return err
}

func (s *Store) FinalizePeriodPaid(ctx context.Context, period, paidBy string, emailsSent, emailsFailed int) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
    UPDATE pay_periods
    SET status = $1, paid_at = now(), paid_by = $2, emails_sent = $3, emails_failed = $4
    WHERE period = $5
  `, PeriodStatusPaid, paidBy, emailsSent, emailsFailed, period); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
    UPDATE salary_payments SET payment_status = $1, updated_at = now() WHERE period = $2
  `, PaymentStatusPaid, period); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) RefreshEmailCounts(ctx context.Context, period string) (int, int, error) {
	var sent, failed int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(*) FILTER (WHERE email_status IN ($2, $3)),
           COUNT(*) FILTER (WHERE email_status = $4)
    FROM salary_payments
    WHERE period = $1
  `, period, EmailStatusSent, EmailStatusSimulated, EmailStatusFailed).Scan(&sent, &failed); err != nil {
		return 0, 0, err
	}
	_, err := s.DB.Exec(ctx, `
    UPDATE pay_periods SET emails_sent = $1, emails_failed = $2 WHERE period = $3
  `, sent, failed, period)
	return sent, failed, err
}

func (s *Store) ListActiveConfigs(ctx context.Context) ([]SalaryConfig, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.employee_id, c.base_salary, c.tax_rate, c.social_security_rate,
           c.working_days, c.daily_hours, c.overtime_multiplier,
           c.bonus_fixed, c.bonus_variable, c.other_deductions,
           COALESCE(c.allowances, 'null'::jsonb)::text,
           COALESCE(c.deductions, 'null'::jsonb)::text
    FROM salary_configs c
    JOIN employees e ON c.employee_id = e.id
    WHERE c.active AND e.active
    ORDER BY c.employee_id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []SalaryConfig
	for rows.Next() {
		var cfg SalaryConfig
		var allowances, deductions string
		if err := rows.Scan(&cfg.EmployeeID, &cfg.BaseSalary, &cfg.TaxRate, &cfg.SocialSecurityRate,
			&cfg.WorkingDays, &cfg.DailyHours, &cfg.OvertimeMultiplier,
			&cfg.BonusFixed, &cfg.BonusVariable, &cfg.OtherDeductions,
			&allowances, &deductions); err != nil {
			return nil, err
		}
		cfg.AllowancesJSON = []byte(allowances)
		cfg.DeductionsJSON = []byte(deductions)
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// UpsertPayment writes the breakdown keyed on (employee_id, period).
// Recomputation overwrites the numbers and resets the approval workflow to
// pending; email delivery state is left untouched.
func (s *Store) UpsertPayment(ctx context.Context, p SalaryPayment) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO salary_payments (
      employee_id, period, base_salary, gross_salary, overtime_amount, bonus_amount,
      tax_amount, social_security_amount, other_deductions, specific_deduction_amount,
      total_deductions, net_salary, payment_status, notes
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    ON CONFLICT (employee_id, period)
    DO UPDATE SET
      base_salary = EXCLUDED.base_salary,
      gross_salary = EXCLUDED.gross_salary,
      overtime_amount = EXCLUDED.overtime_amount,
      bonus_amount = EXCLUDED.bonus_amount,
      tax_amount = EXCLUDED.tax_amount,
      social_security_amount = EXCLUDED.social_security_amount,
      other_deductions = EXCLUDED.other_deductions,
      specific_deduction_amount = EXCLUDED.specific_deduction_amount,
      total_deductions = EXCLUDED.total_deductions,
      net_salary = EXCLUDED.net_salary,
      payment_status = EXCLUDED.payment_status,
      notes = EXCLUDED.notes,
      updated_at = now()
  `, p.EmployeeID, p.Period, p.BaseSalary, p.GrossSalary, p.OvertimeAmount, p.BonusAmount,
		p.TaxAmount, p.SocialSecurityAmount, p.OtherDeductions, p.SpecificDeductions,
		p.TotalDeductions, p.NetSalary, p.PaymentStatus, p.Notes)
	return err
}

func (s *Store) GetPayment(ctx context.Context, employeeID, period string) (SalaryPayment, error) {
	var p SalaryPayment
	err := s.DB.QueryRow(ctx, `
    SELECT employee_id, period, base_salary, gross_salary, overtime_amount, bonus_amount,
           tax_amount, social_security_amount, other_deductions, specific_deduction_amount,
           total_deductions, net_salary, payment_status, email_status, email_attempts,
           COALESCE(last_error, ''), COALESCE(message_id, ''), COALESCE(notes, ''),
           created_at, updated_at
    FROM salary_payments
    WHERE employee_id = $1 AND period = $2
  `, employeeID, period).Scan(&p.EmployeeID, &p.Period, &p.BaseSalary, &p.GrossSalary, &p.OvertimeAmount, &p.BonusAmount,
		&p.TaxAmount, &p.SocialSecurityAmount, &p.OtherDeductions, &p.SpecificDeductions,
		&p.TotalDeductions, &p.NetSalary, &p.PaymentStatus, &p.EmailStatus, &p.EmailAttempts,
		&p.LastError, &p.MessageID, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return SalaryPayment{}, ErrPaymentNotFound
	}
	return p, err
}

func (s *Store) ListPayments(ctx context.Context, period string) ([]SalaryPayment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, period, base_salary, gross_salary, overtime_amount, bonus_amount,
           tax_amount, social_security_amount, other_deductions, specific_deduction_amount,
           total_deductions, net_salary, payment_status, email_status, email_attempts,
           COALESCE(last_error, ''), COALESCE(message_id, ''), COALESCE(notes, ''),
           created_at, updated_at
    FROM salary_payments
    WHERE period = $1
    ORDER BY employee_id
  `, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []SalaryPayment
	for rows.Next() {
		var p SalaryPayment
		if err := rows.Scan(&p.EmployeeID, &p.Period, &p.BaseSalary, &p.GrossSalary, &p.OvertimeAmount, &p.BonusAmount,
			&p.TaxAmount, &p.SocialSecurityAmount, &p.OtherDeductions, &p.SpecificDeductions,
			&p.TotalDeductions, &p.NetSalary, &p.PaymentStatus, &p.EmailStatus, &p.EmailAttempts,
			&p.LastError, &p.MessageID, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *Store) ListRecipients(ctx context.Context, period string) ([]Recipient, error) {
	return s.queryRecipients(ctx, `
    SELECT p.employee_id, e.full_name, COALESCE(e.email, ''), p.net_salary
    FROM salary_payments p
    JOIN employees e ON p.employee_id = e.id
    WHERE p.period = $1
    ORDER BY p.employee_id
  `, period)
}

func (s *Store) ListUndeliveredRecipients(ctx context.Context, period string) ([]Recipient, error) {
	return s.queryRecipients(ctx, `
    SELECT p.employee_id, e.full_name, COALESCE(e.email, ''), p.net_salary
    FROM salary_payments p
    JOIN employees e ON p.employee_id = e.id
    WHERE p.period = $1 AND p.email_status IN ($2, $3)
    ORDER BY p.employee_id
  `, period, EmailStatusUnsent, EmailStatusFailed)
}

func (s *Store) queryRecipients(ctx context.Context, query string, args ...any) ([]Recipient, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(&r.EmployeeID, &r.Name, &r.Email, &r.NetSalary); err != nil {
			return nil, err
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

func (s *Store) RecordEmailSent(ctx context.Context, employeeID, period, status, messageID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE salary_payments
    SET email_status = $1, email_attempts = email_attempts + 1,
        message_id = $2, last_error = NULL, updated_at = now()
    WHERE employee_id = $3 AND period = $4
  `, status, messageID, employeeID, period)
	return err
}

// RecordEmailFailure stores a delivery failure. attempted is false for
// recipients rejected before any network call (missing address), which do
// not consume an attempt.
func (s *Store) RecordEmailFailure(ctx context.Context, employeeID, period, reason string, attempted bool) error {
	attemptDelta := 0
	if attempted {
		attemptDelta = 1
	}
	_, err := s.DB.Exec(ctx, `
    UPDATE salary_payments
    SET email_status = $1, email_attempts = email_attempts + $2,
        last_error = $3, updated_at = now()
    WHERE employee_id = $4 AND period = $5
  `, EmailStatusFailed, attemptDelta, reason, employeeID, period)
	return err
}
