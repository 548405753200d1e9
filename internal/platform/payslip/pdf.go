package payslip

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"hrpay/internal/domain/payroll"
)

// Renderer produces payslip PDFs from a computed salary payment. When an
// archive directory is configured every rendered payslip is also written
// there; an archive failure never fails the render itself.
type Renderer struct {
	dir string
}

func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

func (r *Renderer) Render(payment payroll.SalaryPayment, employeeName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", employeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", payment.Period))
	pdf.Ln(10)

	line := func(label string, amount decimal.Decimal) {
		pdf.Cell(90, 8, label)
		pdf.CellFormat(40, 8, amount.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}

	line("Base salary", payment.BaseSalary)
	line("Overtime", payment.OvertimeAmount)
	line("Bonus", payment.BonusAmount)
	line("Gross salary", payment.GrossSalary)
	pdf.Ln(3)
	line("Tax", payment.TaxAmount)
	line("Social security", payment.SocialSecurityAmount)
	line("Other deductions", payment.OtherDeductions)
	line("Specific deductions", payment.SpecificDeductions)
	line("Total deductions", payment.TotalDeductions)
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	line("Net salary", payment.NetSalary)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if r.dir != "" {
		if err := r.archive(payment, out); err != nil {
			slog.Warn("archiving payslip failed", "employeeId", payment.EmployeeID, "period", payment.Period, "err", err)
		}
	}
	return out, nil
}

func (r *Renderer) archive(payment payroll.SalaryPayment, pdf []byte) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("payslip-%s-%s.pdf", payment.EmployeeID, payment.Period)
	return os.WriteFile(filepath.Join(r.dir, name), pdf, 0o644)
}
