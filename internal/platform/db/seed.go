package db

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"hrpay/internal/platform/config"
)

// Seed provisions the admin user and a couple of demo employees with
// salary configs and attendance rows so the payroll pipeline can be
// exercised end to end on a fresh database. Every insert is a no-op when
// the row already exists.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	password := cfg.SeedAdminPassword
	if strings.TrimSpace(password) == "" {
		password = "admin123"
		slog.Warn("seeding admin with default password, change it before exposing the service")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, role)
    VALUES ($1, $2, 'admin')
    ON CONFLICT (email) DO NOTHING
  `, cfg.SeedAdminEmail, string(hash)); err != nil {
		return err
	}

	employees := []struct {
		id, name, email, department, position string
	}{
		{"emp-001", "Amina Haddad", "amina.haddad@example.com", "Engineering", "Developer"},
		{"emp-002", "Karim Mansour", "karim.mansour@example.com", "Operations", "Technician"},
		{"emp-003", "Leila Trabelsi", "", "Finance", "Accountant"},
	}
	for _, e := range employees {
		var email any
		if e.email != "" {
			email = e.email
		}
		if _, err := pool.Exec(ctx, `
      INSERT INTO employees (id, full_name, email, department, position, active)
      VALUES ($1, $2, $3, $4, $5, true)
      ON CONFLICT (id) DO NOTHING
    `, e.id, e.name, email, e.department, e.position); err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, `
      INSERT INTO salary_configs (
        employee_id, base_salary, tax_rate, social_security_rate,
        working_days, daily_hours, overtime_multiplier,
        bonus_fixed, bonus_variable, other_deductions, allowances, deductions, active
      )
      VALUES ($1, 900, 15, 9, 22, 8, 1.5, 0, 0, 0,
              '[{"name":"Transport","amount":50,"kind":"fixed"}]'::jsonb, '[]'::jsonb, true)
      ON CONFLICT (employee_id) DO NOTHING
    `, e.id); err != nil {
			return err
		}
		if err := seedAttendance(ctx, pool, e.id); err != nil {
			return err
		}
	}
	return nil
}

// seedAttendance fills the previous calendar month with working-day
// records: mostly on time, one late arrival, and a few overtime hours.
func seedAttendance(ctx context.Context, pool *pgxpool.Pool, employeeID string) error {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	end := start.AddDate(0, 1, 0)

	workday := 0
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		workday++
		status := "present"
		overtime := 0.0
		if workday == 3 {
			status = "late"
		}
		if workday == 5 || workday == 12 {
			overtime = 2
		}
		if _, err := pool.Exec(ctx, `
      INSERT INTO attendance_records (employee_id, work_date, status, overtime_hours)
      VALUES ($1, $2, $3, $4)
      ON CONFLICT (employee_id, work_date) DO NOTHING
    `, employeeID, day, status, overtime); err != nil {
			return err
		}
	}
	return nil
}
