package server

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"profitlens/internal/domain/audit"
	"profitlens/internal/domain/banking"
	"profitlens/internal/domain/employees"
	"profitlens/internal/domain/invoicing"
	"profitlens/internal/domain/payroll"
	"profitlens/internal/platform/config"
	"profitlens/internal/platform/db"
	"profitlens/internal/platform/docstore"
	"profitlens/internal/platform/jobs"
	"profitlens/internal/platform/logger"
)

// backend bundles the stores of one STORE_BACKEND.
type backend struct {
	name      string
	invoices  invoicing.StoreAPI
	employees employees.StoreAPI
	payroll   payroll.StoreAPI
	banking   banking.StoreAPI
	audit     audit.Recorder
	runs      jobs.RunStore
	companies jobs.CompanyLister
	ping      func(ctx context.Context) error
	close     func()
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return openPostgres(ctx, cfg)
	case config.BackendFirestore:
		return openFirestore(ctx, cfg)
	case config.BackendMemory:
		return openMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func openPostgres(ctx context.Context, cfg config.Config) (*backend, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	log := logger.WithComponent("server")
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		companyID, err := db.Seed(ctx, pool, cfg)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
		log.Info().Str("company_id", companyID).Msg("default company ready")
	}
	return &backend{
		name:      config.BackendPostgres,
		invoices:  invoicing.NewStore(pool),
		employees: employees.NewStore(pool),
		payroll:   payroll.NewStore(pool),
		banking:   banking.NewStore(pool),
		audit:     audit.NewPGStore(pool),
		runs:      jobs.PGRunStore{DB: pool},
		companies: func(ctx context.Context) ([]string, error) { return db.ListCompanies(ctx, pool) },
		ping:      pool.Ping,
		close:     pool.Close,
	}, nil
}

func openFirestore(ctx context.Context, cfg config.Config) (*backend, error) {
	client, err := docstore.Connect(ctx, cfg.FirestoreProjectID)
	if err != nil {
		return nil, err
	}
	return &backend{
		name:      config.BackendFirestore,
		invoices:  invoicing.NewFirestoreStore(client),
		employees: employees.NewFirestoreStore(client),
		payroll:   payroll.NewFirestoreStore(client),
		banking:   banking.NewFirestoreStore(client),
		audit:     audit.NewFirestoreStore(client),
		runs:      jobs.FirestoreRunStore{Client: client},
		companies: func(ctx context.Context) ([]string, error) { return docstore.ListCompanies(ctx, client) },
		ping:      firestorePing(client),
		close:     func() { _ = client.Close() },
	}, nil
}

// firestorePing reads a company document that need not exist; any answer
// other than an RPC failure means the service is reachable.
func firestorePing(client *firestore.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := docstore.Company(client, "_readiness").Get(ctx)
		if err != nil && !docstore.IsNotFound(err) {
			return err
		}
		return nil
	}
}

func openMemory() *backend {
	staff := employees.NewMemoryStore()
	return &backend{
		name:      config.BackendMemory,
		invoices:  invoicing.NewMemoryStore(),
		employees: staff,
		payroll:   payroll.NewMemoryStore(),
		banking:   banking.NewMemoryStore(),
		audit:     audit.NewMemoryStore(),
		runs:      jobs.LogRunStore{},
		companies: staff.Companies,
		ping:      func(context.Context) error { return nil },
		close:     func() {},
	}
}
