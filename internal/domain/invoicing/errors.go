package invoicing

import "errors"

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrDuplicateNumber = errors.New("invoice number already exists")
)
