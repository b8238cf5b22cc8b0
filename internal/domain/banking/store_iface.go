package banking

import "context"

type StoreAPI interface {
	CreateAccount(ctx context.Context, acc Account) (Account, error)
	GetAccount(ctx context.Context, companyID, accountID string) (Account, error)
	ListAccounts(ctx context.Context, companyID string) ([]Account, error)
	// DeleteAccount removes the account and every transaction under it in one
	// batch and reports how many transactions went with it.
	DeleteAccount(ctx context.Context, companyID, accountID string) (int, error)
	CreateTransaction(ctx context.Context, txn Transaction) (Transaction, error)
	GetTransaction(ctx context.Context, companyID, accountID, transactionID string) (Transaction, error)
	// ListTransactions returns newest first.
	ListTransactions(ctx context.Context, companyID, accountID string) ([]Transaction, error)
	DeleteTransaction(ctx context.Context, companyID, accountID, transactionID string) error
}

type BatchObserver interface {
	RecordBatch(rows int, err error)
}
