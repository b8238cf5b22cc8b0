package employees

import (
	"context"
	"fmt"
	"strings"
	"time"

	"profitlens/internal/platform/money"
)

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

func (d Draft) apply(emp Employee) Employee {
	emp.Name = strings.TrimSpace(d.Name)
	emp.Email = strings.TrimSpace(d.Email)
	emp.Designation = strings.TrimSpace(d.Designation)
	emp.BaseSalary = money.Round(money.NonNegative(d.BaseSalary.Coerced()))
	emp.Status = strings.TrimSpace(d.Status)
	if emp.Status == "" {
		emp.Status = StatusActive
	}
	emp.JoinedOn = nil
	if joined, err := time.Parse(time.DateOnly, strings.TrimSpace(d.JoinedOn)); err == nil {
		emp.JoinedOn = &joined
	}
	return emp
}

func (s *Service) Create(ctx context.Context, companyID string, draft Draft) (Employee, error) {
	emp := draft.apply(Employee{CompanyID: companyID})
	now := s.now().UTC()
	emp.CreatedAt = now
	emp.UpdatedAt = now
	created, err := s.store.Create(ctx, emp)
	if err != nil {
		return Employee{}, fmt.Errorf("create employee: %w", err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, companyID, employeeID string) (Employee, error) {
	return s.store.Get(ctx, companyID, employeeID)
}

func (s *Service) List(ctx context.Context, companyID, status string) ([]Employee, error) {
	out, err := s.store.List(ctx, companyID, status)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if out == nil {
		out = []Employee{}
	}
	return out, nil
}

// ListActive is the roster used to generate pay periods.
func (s *Service) ListActive(ctx context.Context, companyID string) ([]Employee, error) {
	return s.List(ctx, companyID, StatusActive)
}

func (s *Service) Update(ctx context.Context, companyID, employeeID string, draft Draft) (Employee, Employee, error) {
	previous, err := s.store.Get(ctx, companyID, employeeID)
	if err != nil {
		return Employee{}, Employee{}, err
	}
	next := draft.apply(previous)
	next.UpdatedAt = s.now().UTC()
	saved, err := s.store.Update(ctx, next)
	if err != nil {
		return Employee{}, previous, fmt.Errorf("update employee: %w", err)
	}
	return saved, previous, nil
}
