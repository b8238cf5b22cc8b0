package invoicing

import "context"

type StoreAPI interface {
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	Get(ctx context.Context, companyID, invoiceID string) (Invoice, error)
	List(ctx context.Context, companyID string, limit, offset int) ([]Invoice, int, error)
	Update(ctx context.Context, inv Invoice) (Invoice, error)
	Delete(ctx context.Context, companyID, invoiceID string) error
}
