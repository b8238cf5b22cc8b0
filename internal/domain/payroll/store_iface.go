package payroll

import (
	"context"

	"profitlens/internal/domain/employees"
)

type StoreAPI interface {
	// GetSettings returns zero-valued settings when none were saved yet.
	GetSettings(ctx context.Context, companyID string) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
	CreateRecord(ctx context.Context, rec Record) (Record, error)
	GetRecord(ctx context.Context, companyID, recordID string) (Record, error)
	// ListRecords returns records ordered by period then employee; an empty period matches all.
	ListRecords(ctx context.Context, companyID, period string) ([]Record, error)
	UpdateRecord(ctx context.Context, rec Record) (Record, error)
	DeleteRecord(ctx context.Context, companyID, recordID string) error
	// UpsertRecords writes every record keyed by (employee, period) in one atomic
	// batch. A paid record in the way fails the whole batch with ErrRecordPaid.
	UpsertRecords(ctx context.Context, companyID string, records []Record) ([]Record, error)
	// CreateRecords inserts records in one atomic batch.
	CreateRecords(ctx context.Context, companyID string, records []Record) ([]Record, error)
}

// EmployeeDirectory is the part of the employee service payroll depends on.
type EmployeeDirectory interface {
	Get(ctx context.Context, companyID, employeeID string) (employees.Employee, error)
	List(ctx context.Context, companyID, status string) ([]employees.Employee, error)
	ListActive(ctx context.Context, companyID string) ([]employees.Employee, error)
}

// BatchObserver is told about every multi-record write.
type BatchObserver interface {
	RecordBatch(rows int, err error)
}
