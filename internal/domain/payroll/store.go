package payroll

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"profitlens/internal/platform/db"
)

const (
	uniqueViolation    = "23505"
	invalidTextForUUID = "22P02"
	foreignKeyMissing  = "23503"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const recordColumns = `id, company_id, employee_id, pay_period, base_salary, working_days, present_days, ot_days,
    advances, other_deductions, custom_fields, daily_rate, prorated_salary, overtime_pay, gross_earnings,
    pf_percentage, esi_percentage, pf_contribution, esi_contribution, custom_deductions, total_deductions,
    net_payment, status, paid_at, created_at, updated_at`

func (s *Store) GetSettings(ctx context.Context, companyID string) (Settings, error) {
	settings := Settings{CompanyID: companyID, CustomFields: []CustomField{}}
	var fields []byte
	err := s.DB.QueryRow(ctx, `
    SELECT pf_percentage, esi_percentage, custom_fields, updated_at
    FROM payroll_settings WHERE company_id = $1
  `, companyID).Scan(&settings.PFPercentage, &settings.ESIPercentage, &fields, &settings.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return Settings{}, err
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &settings.CustomFields); err != nil {
			return Settings{}, err
		}
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings Settings) error {
	fields, err := json.Marshal(settings.CustomFields)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO payroll_settings (company_id, pf_percentage, esi_percentage, custom_fields, updated_at)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (company_id) DO UPDATE
    SET pf_percentage = EXCLUDED.pf_percentage, esi_percentage = EXCLUDED.esi_percentage,
        custom_fields = EXCLUDED.custom_fields, updated_at = EXCLUDED.updated_at
  `, settings.CompanyID, settings.PFPercentage, settings.ESIPercentage, fields, settings.UpdatedAt)
	return err
}

func recordArgs(rec Record) ([]any, error) {
	custom, err := json.Marshal(rec.CustomFields)
	if err != nil {
		return nil, err
	}
	return []any{
		rec.CompanyID, rec.EmployeeID, rec.PayPeriod, rec.BaseSalary, rec.WorkingDays, rec.PresentDays, rec.OTDays,
		rec.Advances, rec.OtherDeductions, custom, rec.DailyRate, rec.ProratedSalary, rec.OvertimePay, rec.GrossEarnings,
		rec.PFPercentage, rec.ESIPercentage, rec.PFContribution, rec.ESIContribution, rec.CustomDeductions,
		rec.TotalDeductions, rec.NetPayment, string(rec.Status), rec.PaidAt, rec.CreatedAt, rec.UpdatedAt,
	}, nil
}

const insertRecord = `
    INSERT INTO payroll_records (company_id, employee_id, pay_period, base_salary, working_days, present_days, ot_days,
      advances, other_deductions, custom_fields, daily_rate, prorated_salary, overtime_pay, gross_earnings,
      pf_percentage, esi_percentage, pf_contribution, esi_contribution, custom_deductions, total_deductions,
      net_payment, status, paid_at, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)`

func (s *Store) CreateRecord(ctx context.Context, rec Record) (Record, error) {
	args, err := recordArgs(rec)
	if err != nil {
		return Record{}, err
	}
	if err := s.DB.QueryRow(ctx, insertRecord+` RETURNING id`, args...).Scan(&rec.ID); err != nil {
		return Record{}, mapError(err)
	}
	return rec, nil
}

func (s *Store) GetRecord(ctx context.Context, companyID, recordID string) (Record, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+recordColumns+` FROM payroll_records WHERE company_id = $1 AND id = $2`, companyID, recordID)
	rec, err := scanRecord(row)
	if err != nil {
		return Record{}, mapError(err)
	}
	return rec, nil
}

func (s *Store) ListRecords(ctx context.Context, companyID, period string) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM payroll_records
    WHERE company_id = $1 AND ($2 = '' OR pay_period = $2)
    ORDER BY pay_period, employee_id
  `, companyID, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) UpdateRecord(ctx context.Context, rec Record) (Record, error) {
	custom, err := json.Marshal(rec.CustomFields)
	if err != nil {
		return Record{}, err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_records
    SET base_salary = $3, working_days = $4, present_days = $5, ot_days = $6, advances = $7, other_deductions = $8,
        custom_fields = $9, daily_rate = $10, prorated_salary = $11, overtime_pay = $12, gross_earnings = $13,
        pf_percentage = $14, esi_percentage = $15, pf_contribution = $16, esi_contribution = $17,
        custom_deductions = $18, total_deductions = $19, net_payment = $20, status = $21, paid_at = $22,
        updated_at = $23
    WHERE company_id = $1 AND id = $2
  `, rec.CompanyID, rec.ID, rec.BaseSalary, rec.WorkingDays, rec.PresentDays, rec.OTDays, rec.Advances,
		rec.OtherDeductions, custom, rec.DailyRate, rec.ProratedSalary, rec.OvertimePay, rec.GrossEarnings,
		rec.PFPercentage, rec.ESIPercentage, rec.PFContribution, rec.ESIContribution, rec.CustomDeductions,
		rec.TotalDeductions, rec.NetPayment, string(rec.Status), rec.PaidAt, rec.UpdatedAt)
	if err != nil {
		return Record{}, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *Store) DeleteRecord(ctx context.Context, companyID, recordID string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM payroll_records WHERE company_id = $1 AND id = $2`, companyID, recordID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *Store) UpsertRecords(ctx context.Context, companyID string, records []Record) ([]Record, error) {
	out := make([]Record, 0, len(records))
	err := db.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		for _, rec := range records {
			rec.CompanyID = companyID
			args, err := recordArgs(rec)
			if err != nil {
				return err
			}
			// The WHERE on the update arm turns a paid conflict into zero rows.
			err = tx.QueryRow(ctx, insertRecord+`
    ON CONFLICT (company_id, employee_id, pay_period) DO UPDATE
    SET base_salary = EXCLUDED.base_salary, working_days = EXCLUDED.working_days,
        present_days = EXCLUDED.present_days, ot_days = EXCLUDED.ot_days, advances = EXCLUDED.advances,
        other_deductions = EXCLUDED.other_deductions, custom_fields = EXCLUDED.custom_fields,
        daily_rate = EXCLUDED.daily_rate, prorated_salary = EXCLUDED.prorated_salary,
        overtime_pay = EXCLUDED.overtime_pay, gross_earnings = EXCLUDED.gross_earnings,
        pf_percentage = EXCLUDED.pf_percentage, esi_percentage = EXCLUDED.esi_percentage,
        pf_contribution = EXCLUDED.pf_contribution, esi_contribution = EXCLUDED.esi_contribution,
        custom_deductions = EXCLUDED.custom_deductions, total_deductions = EXCLUDED.total_deductions,
        net_payment = EXCLUDED.net_payment, updated_at = EXCLUDED.updated_at
    WHERE payroll_records.status = 'Pending'
    RETURNING id, created_at`, args...).Scan(&rec.ID, &rec.CreatedAt)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRecordPaid
			}
			if err != nil {
				return mapError(err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateRecords(ctx context.Context, companyID string, records []Record) ([]Record, error) {
	out := make([]Record, 0, len(records))
	err := db.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		for _, rec := range records {
			rec.CompanyID = companyID
			args, err := recordArgs(rec)
			if err != nil {
				return err
			}
			if err := tx.QueryRow(ctx, insertRecord+` RETURNING id`, args...).Scan(&rec.ID); err != nil {
				return mapError(err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var custom []byte
	var status string
	err := row.Scan(&rec.ID, &rec.CompanyID, &rec.EmployeeID, &rec.PayPeriod, &rec.BaseSalary, &rec.WorkingDays,
		&rec.PresentDays, &rec.OTDays, &rec.Advances, &rec.OtherDeductions, &custom, &rec.DailyRate,
		&rec.ProratedSalary, &rec.OvertimePay, &rec.GrossEarnings, &rec.PFPercentage, &rec.ESIPercentage,
		&rec.PFContribution, &rec.ESIContribution, &rec.CustomDeductions, &rec.TotalDeductions, &rec.NetPayment,
		&status, &rec.PaidAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	rec.CustomFields = map[string]string{}
	if len(custom) > 0 {
		if err := json.Unmarshal(custom, &rec.CustomFields); err != nil {
			return Record{}, err
		}
	}
	rec.WorkingDaysUsed = Prorate(rec.Input).WorkingDays
	rec.Warnings = recordWarnings(rec)
	return rec, nil
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRecordNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrDuplicateRecord
		case invalidTextForUUID:
			return ErrRecordNotFound
		case foreignKeyMissing:
			return ErrEmployeeNotFound
		}
	}
	return err
}
