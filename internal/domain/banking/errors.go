package banking

import "errors"

var (
	ErrAccountNotFound     = errors.New("bank account not found")
	ErrTransactionNotFound = errors.New("bank transaction not found")
	ErrInvalidAmount       = errors.New("transaction amount must be greater than zero")
	ErrInvalidDate         = errors.New("transaction date must be formatted YYYY-MM-DD")
	ErrInvalidType         = errors.New("transaction type must be credit or debit")
)
