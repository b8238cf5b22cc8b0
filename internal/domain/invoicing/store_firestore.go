package invoicing

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"profitlens/internal/platform/docstore"
	"profitlens/internal/platform/money"
)

type FirestoreStore struct {
	Client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{Client: client}
}

type itemDoc struct {
	Description  string            `firestore:"description"`
	Quantity     string            `firestore:"quantity"`
	UnitPrice    string            `firestore:"unitPrice"`
	CustomFields map[string]string `firestore:"customFields,omitempty"`
}

type invoiceDoc struct {
	Number         string     `firestore:"number"`
	CustomerName   string     `firestore:"customerName"`
	CustomerEmail  string     `firestore:"customerEmail"`
	Currency       string     `firestore:"currency"`
	IssueDate      time.Time  `firestore:"issueDate"`
	DueDate        *time.Time `firestore:"dueDate"`
	Notes          string     `firestore:"notes"`
	Items          []itemDoc  `firestore:"items"`
	DiscountType   string     `firestore:"discountType"`
	DiscountValue  string     `firestore:"discountValue"`
	TaxRatePercent string     `firestore:"taxRatePercent"`
	Subtotal       string     `firestore:"subtotal"`
	DiscountAmount string     `firestore:"discountAmount"`
	Taxable        string     `firestore:"taxable"`
	TaxAmount      string     `firestore:"taxAmount"`
	Total          string     `firestore:"total"`
	CreatedAt      time.Time  `firestore:"createdAt"`
	UpdatedAt      time.Time  `firestore:"updatedAt"`
}

func toDoc(inv Invoice) invoiceDoc {
	items := make([]itemDoc, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, itemDoc{
			Description:  item.Description,
			Quantity:     item.Quantity.String(),
			UnitPrice:    item.UnitPrice.String(),
			CustomFields: item.CustomFields,
		})
	}
	return invoiceDoc{
		Number:         inv.Number,
		CustomerName:   inv.CustomerName,
		CustomerEmail:  inv.CustomerEmail,
		Currency:       inv.Currency,
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		Notes:          inv.Notes,
		Items:          items,
		DiscountType:   string(inv.DiscountType),
		DiscountValue:  inv.DiscountValue.String(),
		TaxRatePercent: inv.TaxRatePercent.String(),
		Subtotal:       money.Format(inv.Totals.Subtotal),
		DiscountAmount: money.Format(inv.Totals.DiscountAmount),
		Taxable:        money.Format(inv.Totals.Taxable),
		TaxAmount:      money.Format(inv.Totals.TaxAmount),
		Total:          money.Format(inv.Totals.Total),
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

func fromSnapshot(companyID string, snap *firestore.DocumentSnapshot) (Invoice, error) {
	var doc invoiceDoc
	if err := snap.DataTo(&doc); err != nil {
		return Invoice{}, err
	}
	inv := Invoice{
		ID:             snap.Ref.ID,
		CompanyID:      companyID,
		Number:         doc.Number,
		CustomerName:   doc.CustomerName,
		CustomerEmail:  doc.CustomerEmail,
		Currency:       doc.Currency,
		IssueDate:      doc.IssueDate,
		DueDate:        doc.DueDate,
		Notes:          doc.Notes,
		DiscountType:   DiscountType(doc.DiscountType),
		DiscountValue:  money.FromString(doc.DiscountValue),
		TaxRatePercent: money.FromString(doc.TaxRatePercent),
		Totals: Totals{
			Subtotal:       money.FromString(doc.Subtotal),
			DiscountAmount: money.FromString(doc.DiscountAmount),
			Taxable:        money.FromString(doc.Taxable),
			TaxAmount:      money.FromString(doc.TaxAmount),
			Total:          money.FromString(doc.Total),
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, item := range doc.Items {
		inv.Items = append(inv.Items, LineItem{
			Description:  item.Description,
			Quantity:     money.FromString(item.Quantity),
			UnitPrice:    money.FromString(item.UnitPrice),
			CustomFields: item.CustomFields,
		})
	}
	inv.Totals.Warnings = ComputeTotals(inv).Warnings
	return inv, nil
}

func (s *FirestoreStore) collection(companyID string) *firestore.CollectionRef {
	return docstore.Company(s.Client, companyID).Collection(docstore.InvoicesCollection)
}

// numberTaken must run before any write in the transaction.
func (s *FirestoreStore) numberTaken(tx *firestore.Transaction, companyID, number, selfID string) (bool, error) {
	query := s.collection(companyID).Where("number", "==", number).Limit(2)
	snaps, err := tx.Documents(query).GetAll()
	if err != nil {
		return false, err
	}
	for _, snap := range snaps {
		if snap.Ref.ID != selfID {
			return true, nil
		}
	}
	return false, nil
}

func (s *FirestoreStore) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	inv.ID = uuid.NewString()
	ref := s.collection(inv.CompanyID).Doc(inv.ID)
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		taken, err := s.numberTaken(tx, inv.CompanyID, inv.Number, inv.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateNumber
		}
		return tx.Create(ref, toDoc(inv))
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (s *FirestoreStore) Get(ctx context.Context, companyID, invoiceID string) (Invoice, error) {
	snap, err := s.collection(companyID).Doc(invoiceID).Get(ctx)
	if err != nil {
		if docstore.IsNotFound(err) {
			return Invoice{}, ErrInvoiceNotFound
		}
		return Invoice{}, err
	}
	return fromSnapshot(companyID, snap)
}

func (s *FirestoreStore) List(ctx context.Context, companyID string, limit, offset int) ([]Invoice, int, error) {
	base := s.collection(companyID).Query
	total, err := docstore.Count(ctx, base)
	if err != nil {
		return nil, 0, err
	}
	iter := base.OrderBy("createdAt", firestore.Desc).Offset(offset).Limit(limit).Documents(ctx)
	items, err := docstore.Collect(iter, func(snap *firestore.DocumentSnapshot) (Invoice, error) {
		return fromSnapshot(companyID, snap)
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *FirestoreStore) Update(ctx context.Context, inv Invoice) (Invoice, error) {
	ref := s.collection(inv.CompanyID).Doc(inv.ID)
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if docstore.IsNotFound(err) {
				return ErrInvoiceNotFound
			}
			return err
		}
		taken, err := s.numberTaken(tx, inv.CompanyID, inv.Number, inv.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateNumber
		}
		return tx.Set(ref, toDoc(inv))
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (s *FirestoreStore) Delete(ctx context.Context, companyID, invoiceID string) error {
	_, err := s.collection(companyID).Doc(invoiceID).Delete(ctx, firestore.Exists)
	if docstore.IsNotFound(err) {
		return ErrInvoiceNotFound
	}
	return err
}
