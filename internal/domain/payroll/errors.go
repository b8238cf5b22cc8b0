package payroll

import "errors"

var (
	ErrRecordNotFound     = errors.New("payroll record not found")
	ErrRecordPaid         = errors.New("payroll record is paid and cannot be edited")
	ErrInvalidTransition  = errors.New("invalid payroll status transition")
	ErrBatchTooLarge      = errors.New("pay period batch exceeds 500 records")
	ErrDuplicateRecord    = errors.New("payroll record already exists for employee and period")
	ErrInvalidPeriod      = errors.New("pay period must be formatted YYYY-MM")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrDuplicateEmployees = errors.New("batch contains the same employee more than once")
)
