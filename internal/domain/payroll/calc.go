package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"

	"hrpay/internal/domain/attendance"
)

var hundred = decimal.NewFromInt(100)

// Compute turns a salary config and an attendance summary into a
// compensation breakdown. All intermediate arithmetic stays unrounded;
// each persisted field is rounded to precision once, and the net salary is
// derived from the unrounded gross and deduction terms so that
// net == gross - deductions holds exactly after the final rounding.
func Compute(cfg SalaryConfig, allowances, deductions []Rule, att attendance.Summary, precision int32) (Breakdown, error) {
	if cfg.WorkingDays <= 0 {
		return Breakdown{}, fmt.Errorf("working days must be positive, got %d", cfg.WorkingDays)
	}
	if cfg.DailyHours <= 0 {
		return Breakdown{}, fmt.Errorf("daily hours must be positive, got %d", cfg.DailyHours)
	}

	dailyRate := cfg.BaseSalary.Div(decimal.NewFromInt(int64(cfg.WorkingDays)))
	hourlyRate := dailyRate.Div(decimal.NewFromInt(int64(cfg.DailyHours)))

	overtime := decimal.NewFromFloat(att.OvertimeHours).Mul(hourlyRate).Mul(cfg.OvertimeMultiplier)
	bonus := cfg.BonusFixed.Add(cfg.BonusVariable)
	totalAllowances := sumRules(cfg.BaseSalary, allowances)

	gross := cfg.BaseSalary.Add(overtime).Add(bonus).Add(totalAllowances)

	tax := gross.Mul(cfg.TaxRate).Div(hundred)
	socialSecurity := gross.Mul(cfg.SocialSecurityRate).Div(hundred)
	specific := sumRules(cfg.BaseSalary, deductions)
	totalDeductions := tax.Add(socialSecurity).Add(cfg.OtherDeductions).Add(specific)

	// Gross and total deductions are each rounded once here; the net is
	// their exact difference so net == gross - deductions holds on the
	// persisted row.
	grossRounded := gross.Round(precision)
	totalDeductionsRounded := totalDeductions.Round(precision)

	return Breakdown{
		BaseSalary:           cfg.BaseSalary.Round(precision),
		OvertimeAmount:       overtime.Round(precision),
		BonusAmount:          bonus.Round(precision),
		TotalAllowances:      totalAllowances.Round(precision),
		GrossSalary:          grossRounded,
		TaxAmount:            tax.Round(precision),
		SocialSecurityAmount: socialSecurity.Round(precision),
		OtherDeductions:      cfg.OtherDeductions.Round(precision),
		SpecificDeductions:   specific.Round(precision),
		TotalDeductions:      totalDeductionsRounded,
		NetSalary:            grossRounded.Sub(totalDeductionsRounded),
	}, nil
}
