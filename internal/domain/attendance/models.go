package attendance

const (
	StatusPresent    = "present"
	StatusAbsent     = "absent"
	StatusLate       = "late"
	StatusEarlyLeave = "early_leave"
)

// Summary is the derived attendance aggregate for one employee over a
// period's date range. It is computed on demand from raw attendance
// records and never persisted.
type Summary struct {
	DaysWorked     int     `json:"daysWorked"`
	DaysPresent    int     `json:"daysPresent"`
	DaysAbsent     int     `json:"daysAbsent"`
	LateDays       int     `json:"lateDays"`
	EarlyLeaveDays int     `json:"earlyLeaveDays"`
	OvertimeHours  float64 `json:"overtimeHours"`
}
