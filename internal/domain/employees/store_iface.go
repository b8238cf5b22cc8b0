package employees

import "context"

type StoreAPI interface {
	Create(ctx context.Context, emp Employee) (Employee, error)
	Get(ctx context.Context, companyID, employeeID string) (Employee, error)
	// List returns employees ordered by name; an empty status matches all.
	List(ctx context.Context, companyID, status string) ([]Employee, error)
	Update(ctx context.Context, emp Employee) (Employee, error)
}
