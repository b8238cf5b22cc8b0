package employees

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `id, company_id, name, email, designation, base_salary, status, joined_on, created_at, updated_at`

func (s *Store) Create(ctx context.Context, emp Employee) (Employee, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (company_id, name, email, designation, base_salary, status, joined_on, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, emp.CompanyID, emp.Name, emp.Email, emp.Designation, emp.BaseSalary, emp.Status, emp.JoinedOn, emp.CreatedAt, emp.UpdatedAt).Scan(&emp.ID)
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) Get(ctx context.Context, companyID, employeeID string) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE company_id = $1 AND id = $2`, companyID, employeeID))
	if err != nil {
		return Employee{}, mapError(err)
	}
	return emp, nil
}

func (s *Store) List(ctx context.Context, companyID, status string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE company_id = $1 AND ($2 = '' OR status = $2)
    ORDER BY name, id
  `, companyID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, emp Employee) (Employee, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET name = $3, email = $4, designation = $5, base_salary = $6, status = $7, joined_on = $8, updated_at = $9
    WHERE company_id = $1 AND id = $2
  `, emp.CompanyID, emp.ID, emp.Name, emp.Email, emp.Designation, emp.BaseSalary, emp.Status, emp.JoinedOn, emp.UpdatedAt)
	if err != nil {
		return Employee{}, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, nil
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(&emp.ID, &emp.CompanyID, &emp.Name, &emp.Email, &emp.Designation, &emp.BaseSalary, &emp.Status,
		&emp.JoinedOn, &emp.CreatedAt, &emp.UpdatedAt)
	return emp, err
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrEmployeeNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return ErrEmployeeNotFound
	}
	return err
}
