package payroll

type FieldType string

const (
	FieldNumber FieldType = "number"
	FieldString FieldType = "string"
	FieldDate   FieldType = "date"
)

type Status string

const (
	StatusPending Status = "Pending"
	StatusPaid    Status = "Paid"
)

const (
	WarningWorkingDaysDefaulted = "working_days_defaulted"
	WarningNegativeNet          = "negative_net"
)

// MaxBatchRows bounds a pay-period save so it fits in one atomic write.
const MaxBatchRows = 500

const (
	JobGeneratePeriod = "payroll_generate_period"
	PeriodLayout      = "2006-01"
)
