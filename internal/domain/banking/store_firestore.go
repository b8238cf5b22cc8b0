package banking

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"profitlens/internal/platform/docstore"
	"profitlens/internal/platform/money"
)

// FirestoreStore keeps transactions as a subcollection of their account:
// companies/{cid}/bankAccounts/{aid}/transactions/{tid}.
type FirestoreStore struct {
	Client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{Client: client}
}

type accountDoc struct {
	Name                string    `firestore:"name"`
	BankName            string    `firestore:"bankName"`
	AccountNumberSealed string    `firestore:"accountNumberEnc"`
	Currency            string    `firestore:"currency"`
	OpeningBalance      string    `firestore:"openingBalance"`
	CreatedAt           time.Time `firestore:"createdAt"`
}

type transactionDoc struct {
	Date        time.Time `firestore:"date"`
	Description string    `firestore:"description"`
	Type        string    `firestore:"type"`
	Amount      string    `firestore:"amount"`
	Reference   string    `firestore:"reference"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

func (s *FirestoreStore) accounts(companyID string) *firestore.CollectionRef {
	return docstore.Company(s.Client, companyID).Collection(docstore.BankAccountsCollection)
}

func (s *FirestoreStore) transactions(companyID, accountID string) *firestore.CollectionRef {
	return s.accounts(companyID).Doc(accountID).Collection(docstore.TransactionsCollection)
}

func accountFromSnapshot(companyID string, snap *firestore.DocumentSnapshot) (Account, error) {
	var doc accountDoc
	if err := snap.DataTo(&doc); err != nil {
		return Account{}, err
	}
	return Account{
		ID:                  snap.Ref.ID,
		CompanyID:           companyID,
		Name:                doc.Name,
		BankName:            doc.BankName,
		AccountNumberSealed: doc.AccountNumberSealed,
		Currency:            doc.Currency,
		OpeningBalance:      money.FromString(doc.OpeningBalance),
		CreatedAt:           doc.CreatedAt,
	}, nil
}

func transactionFromSnapshot(companyID, accountID string, snap *firestore.DocumentSnapshot) (Transaction, error) {
	var doc transactionDoc
	if err := snap.DataTo(&doc); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:          snap.Ref.ID,
		CompanyID:   companyID,
		AccountID:   accountID,
		Date:        doc.Date,
		Description: doc.Description,
		Type:        TxnType(doc.Type),
		Amount:      money.FromString(doc.Amount),
		Reference:   doc.Reference,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

func (s *FirestoreStore) CreateAccount(ctx context.Context, acc Account) (Account, error) {
	acc.ID = uuid.NewString()
	_, err := s.accounts(acc.CompanyID).Doc(acc.ID).Create(ctx, accountDoc{
		Name:                acc.Name,
		BankName:            acc.BankName,
		AccountNumberSealed: acc.AccountNumberSealed,
		Currency:            acc.Currency,
		OpeningBalance:      money.Format(acc.OpeningBalance),
		CreatedAt:           acc.CreatedAt,
	})
	if err != nil {
		return Account{}, err
	}
	return acc, nil
}

func (s *FirestoreStore) GetAccount(ctx context.Context, companyID, accountID string) (Account, error) {
	snap, err := s.accounts(companyID).Doc(accountID).Get(ctx)
	if err != nil {
		if docstore.IsNotFound(err) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return accountFromSnapshot(companyID, snap)
}

func (s *FirestoreStore) ListAccounts(ctx context.Context, companyID string) ([]Account, error) {
	out, err := docstore.Collect(s.accounts(companyID).Documents(ctx), func(snap *firestore.DocumentSnapshot) (Account, error) {
		return accountFromSnapshot(companyID, snap)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteAccount queues every transaction and then the account in one Batch.
// Up to 499 transactions this is a single atomic commit; beyond that the
// chunks commit in order, the account sits in the last one, and Commit stops
// at the first failure so the account outlives any transaction left behind.
func (s *FirestoreStore) DeleteAccount(ctx context.Context, companyID, accountID string) (int, error) {
	accountRef := s.accounts(companyID).Doc(accountID)
	if _, err := accountRef.Get(ctx); err != nil {
		if docstore.IsNotFound(err) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	refs, err := s.transactions(companyID, accountID).DocumentRefs(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	batch := docstore.NewBatch(s.Client, docstore.MaxBatchOps)
	for _, ref := range refs {
		batch.Delete(ref)
	}
	batch.Delete(accountRef)
	if err := batch.Commit(ctx); err != nil {
		return 0, err
	}
	return len(refs), nil
}

func (s *FirestoreStore) CreateTransaction(ctx context.Context, txn Transaction) (Transaction, error) {
	txn.ID = uuid.NewString()
	_, err := s.transactions(txn.CompanyID, txn.AccountID).Doc(txn.ID).Create(ctx, transactionDoc{
		Date:        txn.Date,
		Description: txn.Description,
		Type:        string(txn.Type),
		Amount:      money.Format(txn.Amount),
		Reference:   txn.Reference,
		CreatedAt:   txn.CreatedAt,
	})
	if err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

func (s *FirestoreStore) GetTransaction(ctx context.Context, companyID, accountID, transactionID string) (Transaction, error) {
	snap, err := s.transactions(companyID, accountID).Doc(transactionID).Get(ctx)
	if err != nil {
		if docstore.IsNotFound(err) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return transactionFromSnapshot(companyID, accountID, snap)
}

func (s *FirestoreStore) ListTransactions(ctx context.Context, companyID, accountID string) ([]Transaction, error) {
	iter := s.transactions(companyID, accountID).
		OrderBy("date", firestore.Desc).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	return docstore.Collect(iter, func(snap *firestore.DocumentSnapshot) (Transaction, error) {
		return transactionFromSnapshot(companyID, accountID, snap)
	})
}

func (s *FirestoreStore) DeleteTransaction(ctx context.Context, companyID, accountID, transactionID string) error {
	_, err := s.transactions(companyID, accountID).Doc(transactionID).Delete(ctx, firestore.Exists)
	if docstore.IsNotFound(err) {
		return ErrTransactionNotFound
	}
	return err
}
