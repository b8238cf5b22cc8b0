package invoicing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation    = "23505"
	invalidTextForUUID = "22P02"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const invoiceColumns = `id, company_id, number, customer_name, customer_email, currency, issue_date, due_date, notes,
    items, discount_type, discount_value, tax_rate, subtotal, discount_amount, taxable, tax_amount, total,
    created_at, updated_at`

func (s *Store) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return Invoice{}, err
	}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO invoices (company_id, number, customer_name, customer_email, currency, issue_date, due_date, notes,
      items, discount_type, discount_value, tax_rate, subtotal, discount_amount, taxable, tax_amount, total,
      created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
    RETURNING id
  `, inv.CompanyID, inv.Number, inv.CustomerName, inv.CustomerEmail, inv.Currency, inv.IssueDate, inv.DueDate, inv.Notes,
		items, string(inv.DiscountType), inv.DiscountValue, inv.TaxRatePercent,
		inv.Totals.Subtotal, inv.Totals.DiscountAmount, inv.Totals.Taxable, inv.Totals.TaxAmount, inv.Totals.Total,
		inv.CreatedAt, inv.UpdatedAt).Scan(&inv.ID)
	if err != nil {
		return Invoice{}, mapError(err)
	}
	return inv, nil
}

func (s *Store) Get(ctx context.Context, companyID, invoiceID string) (Invoice, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE company_id = $1 AND id = $2`, companyID, invoiceID)
	inv, err := scanInvoice(row)
	if err != nil {
		return Invoice{}, mapError(err)
	}
	return inv, nil
}

func (s *Store) List(ctx context.Context, companyID string, limit, offset int) ([]Invoice, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM invoices WHERE company_id = $1`, companyID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+invoiceColumns+`
    FROM invoices
    WHERE company_id = $1
    ORDER BY created_at DESC, number DESC
    LIMIT $2 OFFSET $3
  `, companyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

func (s *Store) Update(ctx context.Context, inv Invoice) (Invoice, error) {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return Invoice{}, err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE invoices
    SET number = $3, customer_name = $4, customer_email = $5, currency = $6, issue_date = $7, due_date = $8,
        notes = $9, items = $10, discount_type = $11, discount_value = $12, tax_rate = $13, subtotal = $14,
        discount_amount = $15, taxable = $16, tax_amount = $17, total = $18, updated_at = $19
    WHERE company_id = $1 AND id = $2
  `, inv.CompanyID, inv.ID, inv.Number, inv.CustomerName, inv.CustomerEmail, inv.Currency, inv.IssueDate, inv.DueDate,
		inv.Notes, items, string(inv.DiscountType), inv.DiscountValue, inv.TaxRatePercent, inv.Totals.Subtotal,
		inv.Totals.DiscountAmount, inv.Totals.Taxable, inv.Totals.TaxAmount, inv.Totals.Total, inv.UpdatedAt)
	if err != nil {
		return Invoice{}, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *Store) Delete(ctx context.Context, companyID, invoiceID string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM invoices WHERE company_id = $1 AND id = $2`, companyID, invoiceID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	var items []byte
	var discountType string
	err := row.Scan(&inv.ID, &inv.CompanyID, &inv.Number, &inv.CustomerName, &inv.CustomerEmail, &inv.Currency,
		&inv.IssueDate, &inv.DueDate, &inv.Notes, &items, &discountType, &inv.DiscountValue, &inv.TaxRatePercent,
		&inv.Totals.Subtotal, &inv.Totals.DiscountAmount, &inv.Totals.Taxable, &inv.Totals.TaxAmount, &inv.Totals.Total,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	inv.DiscountType = DiscountType(discountType)
	if len(items) > 0 {
		if err := json.Unmarshal(items, &inv.Items); err != nil {
			return Invoice{}, err
		}
	}
	inv.Totals.Warnings = ComputeTotals(inv).Warnings
	return inv, nil
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInvoiceNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrDuplicateNumber
		case invalidTextForUUID:
			return ErrInvoiceNotFound
		}
	}
	return err
}
