// Package docstore holds the Firestore plumbing shared by the document backend
// of every domain store.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firestorepb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/hashicorp/go-multierror"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	CompaniesCollection      = "companies"
	EmployeesCollection      = "employees"
	InvoicesCollection       = "invoices"
	PayrollRecordsCollection = "payrollRecords"
	SettingsCollection       = "settings"
	BankAccountsCollection   = "bankAccounts"
	TransactionsCollection   = "transactions"
	JobRunsCollection        = "jobRuns"
	AuditEventsCollection    = "auditEvents"

	PayrollSettingsDoc = "payroll"
)

func Connect(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return client, nil
}

// Company returns the root document every tenant-owned collection hangs off.
func Company(client *firestore.Client, companyID string) *firestore.DocumentRef {
	return client.Collection(CompaniesCollection).Doc(companyID)
}

func IsNotFound(err error) bool {
	return status.Code(firstError(err)) == codes.NotFound
}

func IsAlreadyExists(err error) bool {
	return status.Code(firstError(err)) == codes.AlreadyExists
}

// firstError looks inside errors aggregated by Batch.Commit.
func firstError(err error) error {
	var merr *multierror.Error
	if errors.As(err, &merr) && len(merr.Errors) > 0 {
		return merr.Errors[0]
	}
	return err
}

// Collect drains a document iterator and decodes each snapshot with decode.
func Collect[T any](iter *firestore.DocumentIterator, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	defer iter.Stop()
	var out []T
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		item, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
}

// ListCompanies returns the ids of every company root document.
func ListCompanies(ctx context.Context, client *firestore.Client) ([]string, error) {
	refs, err := client.Collection(CompaniesCollection).DocumentRefs(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

// Count runs a server-side count aggregation over query.
func Count(ctx context.Context, query firestore.Query) (int, error) {
	result, err := query.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	value, ok := result["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result %T", result["all"])
	}
	return int(value.GetIntegerValue()), nil
}
