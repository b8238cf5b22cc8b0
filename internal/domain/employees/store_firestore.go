package employees

import (
	"context"
	"sort"
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

type employeeDoc struct {
	Name        string     `firestore:"name"`
	Email       string     `firestore:"email"`
	Designation string     `firestore:"designation"`
	BaseSalary  string     `firestore:"baseSalary"`
	Status      string     `firestore:"status"`
	JoinedOn    *time.Time `firestore:"joinedOn"`
	CreatedAt   time.Time  `firestore:"createdAt"`
	UpdatedAt   time.Time  `firestore:"updatedAt"`
}

func (s *FirestoreStore) collection(companyID string) *firestore.CollectionRef {
	return docstore.Company(s.Client, companyID).Collection(docstore.EmployeesCollection)
}

func toDoc(emp Employee) employeeDoc {
	return employeeDoc{
		Name:        emp.Name,
		Email:       emp.Email,
		Designation: emp.Designation,
		BaseSalary:  money.Format(emp.BaseSalary),
		Status:      emp.Status,
		JoinedOn:    emp.JoinedOn,
		CreatedAt:   emp.CreatedAt,
		UpdatedAt:   emp.UpdatedAt,
	}
}

func fromSnapshot(companyID string, snap *firestore.DocumentSnapshot) (Employee, error) {
	var doc employeeDoc
	if err := snap.DataTo(&doc); err != nil {
		return Employee{}, err
	}
	return Employee{
		ID:          snap.Ref.ID,
		CompanyID:   companyID,
		Name:        doc.Name,
		Email:       doc.Email,
		Designation: doc.Designation,
		BaseSalary:  money.FromString(doc.BaseSalary),
		Status:      doc.Status,
		JoinedOn:    doc.JoinedOn,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

func (s *FirestoreStore) Create(ctx context.Context, emp Employee) (Employee, error) {
	emp.ID = uuid.NewString()
	if _, err := s.collection(emp.CompanyID).Doc(emp.ID).Create(ctx, toDoc(emp)); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *FirestoreStore) Get(ctx context.Context, companyID, employeeID string) (Employee, error) {
	snap, err := s.collection(companyID).Doc(employeeID).Get(ctx)
	if err != nil {
		if docstore.IsNotFound(err) {
			return Employee{}, ErrEmployeeNotFound
		}
		return Employee{}, err
	}
	return fromSnapshot(companyID, snap)
}

func (s *FirestoreStore) List(ctx context.Context, companyID, status string) ([]Employee, error) {
	query := s.collection(companyID).Query
	if status != "" {
		query = query.Where("status", "==", status)
	}
	out, err := docstore.Collect(query.Documents(ctx), func(snap *firestore.DocumentSnapshot) (Employee, error) {
		return fromSnapshot(companyID, snap)
	})
	if err != nil {
		return nil, err
	}
	// Sorted here so the status filter needs no composite index.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *FirestoreStore) Update(ctx context.Context, emp Employee) (Employee, error) {
	_, err := s.collection(emp.CompanyID).Doc(emp.ID).Set(ctx, toDoc(emp))
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}
