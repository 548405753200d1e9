package payroll

import "errors"

var (
	ErrInvalidPeriod   = errors.New("pay period key must use the YYYY-MM format")
	ErrDuplicatePeriod = errors.New("pay period already exists")
	ErrPeriodNotFound  = errors.New("pay period not found")
	ErrPaymentNotFound = errors.New("salary payment not found")
	ErrAlreadyPaid     = errors.New("pay period is already paid")
	ErrInvalidStatus   = errors.New("pay period status does not allow this operation")
	ErrCloseInProgress = errors.New("pay period close already in progress")
	ErrNoPayments      = errors.New("pay period has no salary payments")
	ErrTransport       = errors.New("mail transport unavailable")
)
