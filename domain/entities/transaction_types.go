package entities

// TransactionType represents the type of balance change
type TransactionType string

// All transaction types supported by the system
const (
	// Auction transactions
	TransactionTypeBid    TransactionType = "bid"
	TransactionTypeRefund TransactionType = "refund"

	// Deposits
	TransactionTypeTopUp TransactionType = "topup"

	// System transactions
	TransactionTypeBonus TransactionType = "bonus"
)

// CreditKind is the reason funds are added to a wallet
type CreditKind string

const (
	CreditKindTopUp  CreditKind = "topup"
	CreditKindRefund CreditKind = "refund"
	CreditKindBonus  CreditKind = "bonus"
)

// IsValid reports whether the kind is one of the known credit kinds
func (k CreditKind) IsValid() bool {
	switch k {
	case CreditKindTopUp, CreditKindRefund, CreditKindBonus:
		return true
	}
	return false
}

// TransactionType maps a credit kind onto the ledger transaction type
func (k CreditKind) TransactionType() TransactionType {
	switch k {
	case CreditKindTopUp:
		return TransactionTypeTopUp
	case CreditKindRefund:
		return TransactionTypeRefund
	default:
		return TransactionTypeBonus
	}
}

// IsDebit returns true if the transaction type removes funds
func (tt TransactionType) IsDebit() bool {
	return tt == TransactionTypeBid
}

// IsDeposit returns true if the transaction type counts toward lifetime deposits
func (tt TransactionType) IsDeposit() bool {
	return tt == TransactionTypeTopUp
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}
