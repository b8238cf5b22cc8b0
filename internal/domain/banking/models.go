package banking

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"profitlens/internal/platform/crypto"
	"profitlens/internal/platform/money"
)

type Account struct {
	ID        string
	CompanyID string
	Name      string
	BankName  string
	// AccountNumber is plain text inside the service; stores only see
	// AccountNumberSealed.
	AccountNumber       string
	AccountNumberSealed string
	Currency            string
	OpeningBalance      decimal.Decimal
	Credits             decimal.Decimal
	Debits              decimal.Decimal
	Balance             decimal.Decimal
	CreatedAt           time.Time
}

func (a Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID             string    `json:"id"`
		Name           string    `json:"name"`
		BankName       string    `json:"bankName"`
		AccountNumber  string    `json:"accountNumber"`
		Currency       string    `json:"currency"`
		OpeningBalance string    `json:"openingBalance"`
		Credits        string    `json:"credits"`
		Debits         string    `json:"debits"`
		Balance        string    `json:"balance"`
		CreatedAt      time.Time `json:"createdAt"`
	}{
		ID:             a.ID,
		Name:           a.Name,
		BankName:       a.BankName,
		AccountNumber:  crypto.Mask(a.AccountNumber),
		Currency:       a.Currency,
		OpeningBalance: money.Format(a.OpeningBalance),
		Credits:        money.Format(a.Credits),
		Debits:         money.Format(a.Debits),
		Balance:        money.Format(a.Balance),
		CreatedAt:      a.CreatedAt,
	})
}

type Transaction struct {
	ID          string
	CompanyID   string
	AccountID   string
	Date        time.Time
	Description string
	Type        TxnType
	Amount      decimal.Decimal
	Reference   string
	CreatedAt   time.Time
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string    `json:"id"`
		AccountID   string    `json:"accountId"`
		Date        string    `json:"date"`
		Description string    `json:"description"`
		Type        TxnType   `json:"type"`
		Amount      string    `json:"amount"`
		Reference   string    `json:"reference,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
	}{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Date:        t.Date.Format(time.DateOnly),
		Description: t.Description,
		Type:        t.Type,
		Amount:      money.Format(t.Amount),
		Reference:   t.Reference,
		CreatedAt:   t.CreatedAt,
	})
}

type AccountDraft struct {
	Name           string      `json:"name" validate:"required,max=200"`
	BankName       string      `json:"bankName" validate:"max=200"`
	AccountNumber  string      `json:"accountNumber" validate:"max=34"`
	Currency       string      `json:"currency" validate:"omitempty,len=3,alpha"`
	OpeningBalance money.Input `json:"openingBalance"`
}

type TransactionDraft struct {
	Date        string      `json:"date" validate:"required"`
	Description string      `json:"description" validate:"max=500"`
	Type        string      `json:"type" validate:"required,oneof=credit debit"`
	Amount      money.Input `json:"amount"`
	Reference   string      `json:"reference" validate:"max=120"`
}

// Movement sums the transactions of one account.
type Movement struct {
	Credits decimal.Decimal
	Debits  decimal.Decimal
}

// Summarize totals credits and debits.
func Summarize(txns []Transaction) Movement {
	m := Movement{Credits: decimal.Zero, Debits: decimal.Zero}
	for _, txn := range txns {
		switch txn.Type {
		case Credit:
			m.Credits = m.Credits.Add(txn.Amount)
		case Debit:
			m.Debits = m.Debits.Add(txn.Amount)
		}
	}
	return m
}

// Apply sets the derived figures: balance = opening + credits - debits.
func (m Movement) Apply(acc Account) Account {
	acc.Credits = money.Round(m.Credits)
	acc.Debits = money.Round(m.Debits)
	acc.Balance = money.Round(acc.OpeningBalance.Add(m.Credits).Sub(m.Debits))
	return acc
}
