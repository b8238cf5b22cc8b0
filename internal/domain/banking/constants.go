package banking

type TxnType string

const (
	Credit TxnType = "credit"
	Debit  TxnType = "debit"
)

const DefaultCurrency = "INR"

func ParseTxnType(raw string) (TxnType, bool) {
	switch TxnType(raw) {
	case Credit, Debit:
		return TxnType(raw), true
	default:
		return "", false
	}
}
