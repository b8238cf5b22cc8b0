package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"profitlens/internal/platform/config"
)

// Seed makes sure the default company and its payroll settings row exist.
// Safe to run on every start.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) (string, error) {
	name := strings.TrimSpace(cfg.SeedCompanyName)
	if name == "" {
		return "", errors.New("SEED_COMPANY_NAME is empty")
	}
	companyID, err := ensureCompany(ctx, pool, name)
	if err != nil {
		return "", err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO payroll_settings (company_id) VALUES ($1)
    ON CONFLICT (company_id) DO NOTHING
  `, companyID)
	if err != nil {
		return "", err
	}
	return companyID, nil
}

func ensureCompany(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM companies WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	err = pool.QueryRow(ctx, "INSERT INTO companies (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
