package banking

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"profitlens/internal/platform/db"
)

const invalidTextForUUID = "22P02"

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const (
	accountColumns     = `id, company_id, name, bank_name, account_number_enc, currency, opening_balance, created_at`
	transactionColumns = `id, company_id, account_id, txn_date, description, txn_type, amount, reference, created_at`
)

func (s *Store) CreateAccount(ctx context.Context, acc Account) (Account, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO bank_accounts (company_id, name, bank_name, account_number_enc, currency, opening_balance, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, acc.CompanyID, acc.Name, acc.BankName, acc.AccountNumberSealed, acc.Currency, acc.OpeningBalance, acc.CreatedAt).Scan(&acc.ID)
	if err != nil {
		return Account{}, err
	}
	return acc, nil
}

func (s *Store) GetAccount(ctx context.Context, companyID, accountID string) (Account, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+accountColumns+` FROM bank_accounts WHERE company_id = $1 AND id = $2`, companyID, accountID)
	acc, err := scanAccount(row)
	if err != nil {
		return Account{}, mapError(err, ErrAccountNotFound)
	}
	return acc, nil
}

func (s *Store) ListAccounts(ctx context.Context, companyID string) ([]Account, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+accountColumns+` FROM bank_accounts WHERE company_id = $1 ORDER BY name, created_at`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAccount(ctx context.Context, companyID, accountID string) (int, error) {
	var removed int
	err := db.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM bank_transactions WHERE company_id = $1 AND account_id = $2`, companyID, accountID)
		if err != nil {
			return err
		}
		removed = int(tag.RowsAffected())
		tag, err = tx.Exec(ctx, `DELETE FROM bank_accounts WHERE company_id = $1 AND id = $2`, companyID, accountID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrAccountNotFound
		}
		return nil
	})
	if err != nil {
		return 0, mapError(err, ErrAccountNotFound)
	}
	return removed, nil
}

func (s *Store) CreateTransaction(ctx context.Context, txn Transaction) (Transaction, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO bank_transactions (company_id, account_id, txn_date, description, txn_type, amount, reference, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, txn.CompanyID, txn.AccountID, txn.Date, txn.Description, string(txn.Type), txn.Amount, txn.Reference, txn.CreatedAt).Scan(&txn.ID)
	if err != nil {
		return Transaction{}, mapError(err, ErrAccountNotFound)
	}
	return txn, nil
}

func (s *Store) GetTransaction(ctx context.Context, companyID, accountID, transactionID string) (Transaction, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+transactionColumns+` FROM bank_transactions
    WHERE company_id = $1 AND account_id = $2 AND id = $3
  `, companyID, accountID, transactionID)
	txn, err := scanTransaction(row)
	if err != nil {
		return Transaction{}, mapError(err, ErrTransactionNotFound)
	}
	return txn, nil
}

func (s *Store) ListTransactions(ctx context.Context, companyID, accountID string) ([]Transaction, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+transactionColumns+` FROM bank_transactions
    WHERE company_id = $1 AND account_id = $2
    ORDER BY txn_date DESC, created_at DESC
  `, companyID, accountID)
	if err != nil {
		return nil, mapError(err, ErrAccountNotFound)
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

func (s *Store) DeleteTransaction(ctx context.Context, companyID, accountID, transactionID string) error {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM bank_transactions WHERE company_id = $1 AND account_id = $2 AND id = $3
  `, companyID, accountID, transactionID)
	if err != nil {
		return mapError(err, ErrTransactionNotFound)
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var acc Account
	err := row.Scan(&acc.ID, &acc.CompanyID, &acc.Name, &acc.BankName, &acc.AccountNumberSealed, &acc.Currency,
		&acc.OpeningBalance, &acc.CreatedAt)
	return acc, err
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var txn Transaction
	var txnType string
	err := row.Scan(&txn.ID, &txn.CompanyID, &txn.AccountID, &txn.Date, &txn.Description, &txnType, &txn.Amount,
		&txn.Reference, &txn.CreatedAt)
	txn.Type = TxnType(txnType)
	return txn, err
}

// mapError turns missing rows and malformed ids into notFound.
func mapError(err, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextForUUID {
		return notFound
	}
	return err
}
