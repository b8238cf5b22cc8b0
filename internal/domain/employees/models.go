package employees

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"profitlens/internal/platform/money"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Employee struct {
	ID          string
	CompanyID   string
	Name        string
	Email       string
	Designation string
	BaseSalary  decimal.Decimal
	Status      string
	JoinedOn    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (e Employee) Active() bool {
	return e.Status == StatusActive
}

func (e Employee) MarshalJSON() ([]byte, error) {
	var joined *string
	if e.JoinedOn != nil {
		formatted := e.JoinedOn.Format(time.DateOnly)
		joined = &formatted
	}
	return json.Marshal(struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Email       string    `json:"email,omitempty"`
		Designation string    `json:"designation,omitempty"`
		BaseSalary  string    `json:"baseSalary"`
		Status      string    `json:"status"`
		JoinedOn    *string   `json:"joinedOn,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}{
		ID:          e.ID,
		Name:        e.Name,
		Email:       e.Email,
		Designation: e.Designation,
		BaseSalary:  money.Format(e.BaseSalary),
		Status:      e.Status,
		JoinedOn:    joined,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	})
}

type Draft struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Email       string      `json:"email" validate:"omitempty,email"`
	Designation string      `json:"designation" validate:"max=200"`
	BaseSalary  money.Input `json:"baseSalary"`
	Status      string      `json:"status" validate:"omitempty,oneof=active inactive"`
	JoinedOn    string      `json:"joinedOn"`
}
