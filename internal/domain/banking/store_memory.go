package banking

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu           sync.RWMutex
	accounts     map[string]Account
	transactions map[string]Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: map[string]Account{}, transactions: map[string]Transaction{}}
}

func (m *MemoryStore) CreateAccount(_ context.Context, acc Account) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc.ID = uuid.NewString()
	m.accounts[acc.ID] = acc
	return acc, nil
}

func (m *MemoryStore) GetAccount(_ context.Context, companyID, accountID string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[accountID]
	if !ok || acc.CompanyID != companyID {
		return Account{}, ErrAccountNotFound
	}
	return acc, nil
}

func (m *MemoryStore) ListAccounts(_ context.Context, companyID string) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Account
	for _, acc := range m.accounts {
		if acc.CompanyID == companyID {
			out = append(out, acc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MemoryStore) DeleteAccount(_ context.Context, companyID, accountID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[accountID]
	if !ok || acc.CompanyID != companyID {
		return 0, ErrAccountNotFound
	}
	removed := 0
	for id, txn := range m.transactions {
		if txn.CompanyID == companyID && txn.AccountID == accountID {
			delete(m.transactions, id)
			removed++
		}
	}
	delete(m.accounts, accountID)
	return removed, nil
}

func (m *MemoryStore) CreateTransaction(_ context.Context, txn Transaction) (Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[txn.AccountID]; !ok || acc.CompanyID != txn.CompanyID {
		return Transaction{}, ErrAccountNotFound
	}
	txn.ID = uuid.NewString()
	m.transactions[txn.ID] = txn
	return txn, nil
}

func (m *MemoryStore) GetTransaction(_ context.Context, companyID, accountID, transactionID string) (Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	txn, ok := m.transactions[transactionID]
	if !ok || txn.CompanyID != companyID || txn.AccountID != accountID {
		return Transaction{}, ErrTransactionNotFound
	}
	return txn, nil
}

func (m *MemoryStore) ListTransactions(_ context.Context, companyID, accountID string) ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Transaction
	for _, txn := range m.transactions {
		if txn.CompanyID == companyID && txn.AccountID == accountID {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (m *MemoryStore) DeleteTransaction(_ context.Context, companyID, accountID, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.transactions[transactionID]
	if !ok || txn.CompanyID != companyID || txn.AccountID != accountID {
		return ErrTransactionNotFound
	}
	delete(m.transactions, transactionID)
	return nil
}
