package payroll

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"profitlens/internal/platform/docstore"
	"profitlens/internal/platform/money"
)

type FirestoreStore struct {
	Client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{Client: client}
}

type settingsDoc struct {
	PFPercentage  string        `firestore:"pfPercentage"`
	ESIPercentage string        `firestore:"esiPercentage"`
	CustomFields  []CustomField `firestore:"customFields"`
	UpdatedAt     time.Time     `firestore:"updatedAt"`
}

type recordDoc struct {
	EmployeeID       string            `firestore:"employeeId"`
	PayPeriod        string            `firestore:"payPeriod"`
	BaseSalary       string            `firestore:"baseSalary"`
	WorkingDays      string            `firestore:"workingDays"`
	PresentDays      string            `firestore:"presentDays"`
	OTDays           string            `firestore:"otDays"`
	Advances         string            `firestore:"advances"`
	OtherDeductions  string            `firestore:"otherDeductions"`
	CustomFields     map[string]string `firestore:"customFields"`
	DailyRate        string            `firestore:"dailyRate"`
	ProratedSalary   string            `firestore:"proratedSalary"`
	OvertimePay      string            `firestore:"overtimePay"`
	GrossEarnings    string            `firestore:"grossEarnings"`
	PFPercentage     string            `firestore:"pfPercentage"`
	ESIPercentage    string            `firestore:"esiPercentage"`
	PFContribution   string            `firestore:"pfContribution"`
	ESIContribution  string            `firestore:"esiContribution"`
	CustomDeductions string            `firestore:"customDeductions"`
	TotalDeductions  string            `firestore:"totalDeductions"`
	NetPayment       string            `firestore:"netPayment"`
	Status           string            `firestore:"status"`
	PaidAt           *time.Time        `firestore:"paidAt"`
	CreatedAt        time.Time         `firestore:"createdAt"`
	UpdatedAt        time.Time         `firestore:"updatedAt"`
}

// RecordDocID keys a record by employee and period so the pair stays unique
// without a query.
func RecordDocID(employeeID, period string) string {
	return employeeID + "_" + period
}

func toRecordDoc(rec Record) recordDoc {
	return recordDoc{
		EmployeeID:       rec.EmployeeID,
		PayPeriod:        rec.PayPeriod,
		BaseSalary:       money.Format(rec.BaseSalary),
		WorkingDays:      rec.WorkingDays.String(),
		PresentDays:      rec.PresentDays.String(),
		OTDays:           rec.OTDays.String(),
		Advances:         money.Format(rec.Advances),
		OtherDeductions:  money.Format(rec.OtherDeductions),
		CustomFields:     rec.CustomFields,
		DailyRate:        money.Format(rec.DailyRate),
		ProratedSalary:   money.Format(rec.ProratedSalary),
		OvertimePay:      money.Format(rec.OvertimePay),
		GrossEarnings:    money.Format(rec.GrossEarnings),
		PFPercentage:     rec.PFPercentage.String(),
		ESIPercentage:    rec.ESIPercentage.String(),
		PFContribution:   money.Format(rec.PFContribution),
		ESIContribution:  money.Format(rec.ESIContribution),
		CustomDeductions: money.Format(rec.CustomDeductions),
		TotalDeductions:  money.Format(rec.TotalDeductions),
		NetPayment:       money.Format(rec.NetPayment),
		Status:           string(rec.Status),
		PaidAt:           rec.PaidAt,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
}

func recordFromSnapshot(companyID string, snap *firestore.DocumentSnapshot) (Record, error) {
	var doc recordDoc
	if err := snap.DataTo(&doc); err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:        snap.Ref.ID,
		CompanyID: companyID,
		PayPeriod: doc.PayPeriod,
		Input: Input{
			EmployeeID:      doc.EmployeeID,
			BaseSalary:      money.FromString(doc.BaseSalary),
			WorkingDays:     money.FromString(doc.WorkingDays),
			PresentDays:     money.FromString(doc.PresentDays),
			OTDays:          money.FromString(doc.OTDays),
			Advances:        money.FromString(doc.Advances),
			OtherDeductions: money.FromString(doc.OtherDeductions),
			CustomFields:    doc.CustomFields,
		},
		Breakdown: Breakdown{
			DailyRate:        money.FromString(doc.DailyRate),
			ProratedSalary:   money.FromString(doc.ProratedSalary),
			OvertimePay:      money.FromString(doc.OvertimePay),
			GrossEarnings:    money.FromString(doc.GrossEarnings),
			PFPercentage:     money.FromString(doc.PFPercentage),
			ESIPercentage:    money.FromString(doc.ESIPercentage),
			PFContribution:   money.FromString(doc.PFContribution),
			ESIContribution:  money.FromString(doc.ESIContribution),
			CustomDeductions: money.FromString(doc.CustomDeductions),
			TotalDeductions:  money.FromString(doc.TotalDeductions),
			NetPayment:       money.FromString(doc.NetPayment),
		},
		Status:    Status(doc.Status),
		PaidAt:    doc.PaidAt,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if rec.CustomFields == nil {
		rec.CustomFields = map[string]string{}
	}
	rec.WorkingDaysUsed = Prorate(rec.Input).WorkingDays
	rec.Warnings = recordWarnings(rec)
	return rec, nil
}

func (s *FirestoreStore) records(companyID string) *firestore.CollectionRef {
	return docstore.Company(s.Client, companyID).Collection(docstore.PayrollRecordsCollection)
}

func (s *FirestoreStore) settingsRef(companyID string) *firestore.DocumentRef {
	return docstore.Company(s.Client, companyID).Collection(docstore.SettingsCollection).Doc(docstore.PayrollSettingsDoc)
}

func (s *FirestoreStore) GetSettings(ctx context.Context, companyID string) (Settings, error) {
	settings := Settings{CompanyID: companyID, CustomFields: []CustomField{}}
	snap, err := s.settingsRef(companyID).Get(ctx)
	if docstore.IsNotFound(err) {
		return settings, nil
	}
	if err != nil {
		return Settings{}, err
	}
	var doc settingsDoc
	if err := snap.DataTo(&doc); err != nil {
		return Settings{}, err
	}
	settings.PFPercentage = money.FromString(doc.PFPercentage)
	settings.ESIPercentage = money.FromString(doc.ESIPercentage)
	settings.UpdatedAt = doc.UpdatedAt
	if doc.CustomFields != nil {
		settings.CustomFields = doc.CustomFields
	}
	return settings, nil
}

func (s *FirestoreStore) SaveSettings(ctx context.Context, settings Settings) error {
	_, err := s.settingsRef(settings.CompanyID).Set(ctx, settingsDoc{
		PFPercentage:  settings.PFPercentage.String(),
		ESIPercentage: settings.ESIPercentage.String(),
		CustomFields:  settings.CustomFields,
		UpdatedAt:     settings.UpdatedAt,
	})
	return err
}

func (s *FirestoreStore) CreateRecord(ctx context.Context, rec Record) (Record, error) {
	rec.ID = RecordDocID(rec.EmployeeID, rec.PayPeriod)
	if _, err := s.records(rec.CompanyID).Doc(rec.ID).Create(ctx, toRecordDoc(rec)); err != nil {
		if docstore.IsAlreadyExists(err) {
			return Record{}, ErrDuplicateRecord
		}
		return Record{}, err
	}
	return rec, nil
}

func (s *FirestoreStore) GetRecord(ctx context.Context, companyID, recordID string) (Record, error) {
	snap, err := s.records(companyID).Doc(recordID).Get(ctx)
	if err != nil {
		if docstore.IsNotFound(err) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}
	return recordFromSnapshot(companyID, snap)
}

func (s *FirestoreStore) ListRecords(ctx context.Context, companyID, period string) ([]Record, error) {
	query := s.records(companyID).Query
	if period != "" {
		query = query.Where("payPeriod", "==", period)
	}
	out, err := docstore.Collect(query.Documents(ctx), func(snap *firestore.DocumentSnapshot) (Record, error) {
		return recordFromSnapshot(companyID, snap)
	})
	if err != nil {
		return nil, err
	}
	sortRecords(out)
	return out, nil
}

func (s *FirestoreStore) UpdateRecord(ctx context.Context, rec Record) (Record, error) {
	ref := s.records(rec.CompanyID).Doc(rec.ID)
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if docstore.IsNotFound(err) {
				return ErrRecordNotFound
			}
			return err
		}
		return tx.Set(ref, toRecordDoc(rec))
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *FirestoreStore) DeleteRecord(ctx context.Context, companyID, recordID string) error {
	_, err := s.records(companyID).Doc(recordID).Delete(ctx, firestore.Exists)
	if docstore.IsNotFound(err) {
		return ErrRecordNotFound
	}
	return err
}

// UpsertRecords runs as one transaction so the paid check and the writes see
// the same snapshot.
func (s *FirestoreStore) UpsertRecords(ctx context.Context, companyID string, records []Record) ([]Record, error) {
	refs := make([]*firestore.DocumentRef, len(records))
	for i, rec := range records {
		refs[i] = s.records(companyID).Doc(RecordDocID(rec.EmployeeID, rec.PayPeriod))
	}
	out := make([]Record, len(records))
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snaps, err := tx.GetAll(refs)
		if err != nil {
			return err
		}
		for i, snap := range snaps {
			rec := records[i]
			rec.CompanyID = companyID
			rec.ID = refs[i].ID
			if snap.Exists() {
				prior, err := recordFromSnapshot(companyID, snap)
				if err != nil {
					return err
				}
				if prior.Status == StatusPaid {
					return ErrRecordPaid
				}
				rec.CreatedAt = prior.CreatedAt
			}
			out[i] = rec
		}
		for i, rec := range out {
			if err := tx.Set(refs[i], toRecordDoc(rec)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FirestoreStore) CreateRecords(ctx context.Context, companyID string, records []Record) ([]Record, error) {
	batch := docstore.NewBatch(s.Client, docstore.MaxBatchOps)
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		rec.CompanyID = companyID
		rec.ID = RecordDocID(rec.EmployeeID, rec.PayPeriod)
		batch.Create(s.records(companyID).Doc(rec.ID), toRecordDoc(rec))
		out = append(out, rec)
	}
	if err := batch.Commit(ctx); err != nil {
		if docstore.IsAlreadyExists(err) {
			return nil, ErrDuplicateRecord
		}
		return nil, err
	}
	return out, nil
}
