package banking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"profitlens/internal/platform/crypto"
	"profitlens/internal/platform/logger"
	"profitlens/internal/platform/money"
)

type Service struct {
	store   StoreAPI
	crypto  *crypto.Service
	batches BatchObserver
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(store StoreAPI, cryptoSvc *crypto.Service, batches BatchObserver) *Service {
	return &Service{
		store:   store,
		crypto:  cryptoSvc,
		batches: batches,
		log:     logger.WithComponent("banking"),
		now:     time.Now,
	}
}

// reveal opens the sealed account number. A value that fails to open is
// returned blank rather than failing the read.
func (s *Service) reveal(acc Account) Account {
	plain, err := s.crypto.OpenString(acc.AccountNumberSealed)
	if err != nil {
		s.log.Warn().Err(err).Str("account_id", acc.ID).Msg("account number could not be decrypted")
		plain = ""
	}
	acc.AccountNumber = plain
	return acc
}

func (s *Service) withBalance(ctx context.Context, acc Account) (Account, error) {
	txns, err := s.store.ListTransactions(ctx, acc.CompanyID, acc.ID)
	if err != nil {
		return Account{}, fmt.Errorf("load transactions: %w", err)
	}
	return Summarize(txns).Apply(s.reveal(acc)), nil
}

func (s *Service) CreateAccount(ctx context.Context, companyID string, draft AccountDraft) (Account, error) {
	number := strings.TrimSpace(draft.AccountNumber)
	sealed, err := s.crypto.SealString(number)
	if err != nil {
		return Account{}, fmt.Errorf("seal account number: %w", err)
	}
	currency := strings.ToUpper(strings.TrimSpace(draft.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	acc := Account{
		CompanyID:           companyID,
		Name:                strings.TrimSpace(draft.Name),
		BankName:            strings.TrimSpace(draft.BankName),
		AccountNumberSealed: sealed,
		Currency:            currency,
		OpeningBalance:      money.Round(draft.OpeningBalance.Coerced()),
		CreatedAt:           s.now().UTC(),
	}
	created, err := s.store.CreateAccount(ctx, acc)
	if err != nil {
		return Account{}, fmt.Errorf("create bank account: %w", err)
	}
	created.AccountNumber = number
	return Summarize(nil).Apply(created), nil
}

func (s *Service) GetAccount(ctx context.Context, companyID, accountID string) (Account, error) {
	acc, err := s.store.GetAccount(ctx, companyID, accountID)
	if err != nil {
		return Account{}, err
	}
	return s.withBalance(ctx, acc)
}

func (s *Service) ListAccounts(ctx context.Context, companyID string) ([]Account, error) {
	accounts, err := s.store.ListAccounts(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	out := make([]Account, 0, len(accounts))
	for _, acc := range accounts {
		withBalance, err := s.withBalance(ctx, acc)
		if err != nil {
			return nil, err
		}
		out = append(out, withBalance)
	}
	return out, nil
}

// DeleteAccount removes the account together with its transactions.
func (s *Service) DeleteAccount(ctx context.Context, companyID, accountID string) (Account, error) {
	existing, err := s.GetAccount(ctx, companyID, accountID)
	if err != nil {
		return Account{}, err
	}
	removed, err := s.store.DeleteAccount(ctx, companyID, accountID)
	if s.batches != nil {
		s.batches.RecordBatch(removed+1, err)
	}
	if err != nil {
		return Account{}, fmt.Errorf("delete bank account: %w", err)
	}
	s.log.Info().Str("company_id", companyID).Str("account_id", accountID).Int("transactions", removed).Msg("bank account deleted")
	return existing, nil
}

func (s *Service) CreateTransaction(ctx context.Context, companyID, accountID string, draft TransactionDraft) (Transaction, error) {
	if _, err := s.store.GetAccount(ctx, companyID, accountID); err != nil {
		return Transaction{}, err
	}
	txnType, ok := ParseTxnType(strings.TrimSpace(draft.Type))
	if !ok {
		return Transaction{}, ErrInvalidType
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(draft.Date))
	if err != nil {
		return Transaction{}, ErrInvalidDate
	}
	amount := money.Round(draft.Amount.Coerced())
	if !amount.IsPositive() {
		return Transaction{}, ErrInvalidAmount
	}
	txn := Transaction{
		CompanyID:   companyID,
		AccountID:   accountID,
		Date:        date,
		Description: strings.TrimSpace(draft.Description),
		Type:        txnType,
		Amount:      amount,
		Reference:   strings.TrimSpace(draft.Reference),
		CreatedAt:   s.now().UTC(),
	}
	created, err := s.store.CreateTransaction(ctx, txn)
	if err != nil {
		return Transaction{}, fmt.Errorf("create bank transaction: %w", err)
	}
	return created, nil
}

func (s *Service) ListTransactions(ctx context.Context, companyID, accountID string) ([]Transaction, error) {
	if _, err := s.store.GetAccount(ctx, companyID, accountID); err != nil {
		return nil, err
	}
	txns, err := s.store.ListTransactions(ctx, companyID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list bank transactions: %w", err)
	}
	if txns == nil {
		txns = []Transaction{}
	}
	return txns, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, companyID, accountID, transactionID string) (Transaction, error) {
	existing, err := s.store.GetTransaction(ctx, companyID, accountID, transactionID)
	if err != nil {
		return Transaction{}, err
	}
	if err := s.store.DeleteTransaction(ctx, companyID, accountID, transactionID); err != nil {
		return Transaction{}, fmt.Errorf("delete bank transaction: %w", err)
	}
	return existing, nil
}
