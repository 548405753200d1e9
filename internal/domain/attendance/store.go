package attendance

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Summary aggregates the raw attendance rows for one employee between
// start and end (inclusive). Late and early-leave days still count as
// days present and worked.
func (s *Store) Summary(ctx context.Context, employeeID string, start, end time.Time) (Summary, error) {
	var onTime int
	var summary Summary
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(*) FILTER (WHERE status = $4),
           COUNT(*) FILTER (WHERE status = $5),
           COUNT(*) FILTER (WHERE status = $6),
           COUNT(*) FILTER (WHERE status = $7),
           COALESCE(SUM(overtime_hours), 0)
    FROM attendance_records
    WHERE employee_id = $1 AND work_date >= $2 AND work_date <= $3
  `, employeeID, start, end,
		StatusPresent, StatusAbsent, StatusLate, StatusEarlyLeave,
	).Scan(&onTime, &summary.DaysAbsent, &summary.LateDays, &summary.EarlyLeaveDays, &summary.OvertimeHours)
	if err != nil {
		return Summary{}, err
	}
	summary.DaysPresent = onTime + summary.LateDays + summary.EarlyLeaveDays
	summary.DaysWorked = summary.DaysPresent
	return summary, nil
}
