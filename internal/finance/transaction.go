package finance

import (
	"strings"
	"time"
)

// Type classifies the direction of a financial movement.
type Type string

const (
	TypeExpense Type = "EXPENSE"
	TypeIncome  Type = "INCOME"
	TypeDebt    Type = "DEBT"
)

// ParseType maps a free-form type label to a Type, defaulting to EXPENSE.
func ParseType(s string) Type {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeIncome:
		return TypeIncome
	case TypeDebt:
		return TypeDebt
	default:
		return TypeExpense
	}
}

// Status is the lifecycle state of a transaction.
//
// A transaction is born PROVISIONAL from an unverified voice utterance and
// may move exactly once, to VERIFIED (a source document confirmed it) or to
// VERIFIED_MANUAL (the user confirmed it without a document). There are no
// transitions out of the verified states.
type Status string

const (
	StatusProvisional    Status = "provisional"
	StatusVerified       Status = "verified"
	StatusVerifiedManual Status = "verified_manual"
)

// Transaction is a persisted financial movement owned by exactly one user.
// All reads and writes must be scoped by UserID.
type Transaction struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	Type    Type    `json:"type"`
	Amount  float64 `json:"amount"`
	Concept string  `json:"concept"`

	// Merchant is nil unless a merchant was explicitly named, and is never
	// a case-insensitive duplicate of Concept.
	Merchant *string `json:"merchant,omitempty"`

	// Category is a label from the closed taxonomy, assigned by the caller
	// of the state machine (see Categorize).
	Category *string `json:"category,omitempty"`

	Status Status `json:"status"`

	// TransactionDate and TransactionTime are populated only once a source
	// document verifies the transaction.
	TransactionDate *time.Time `json:"transaction_date,omitempty"`
	TransactionTime string     `json:"transaction_time,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// normalizeMerchant drops a merchant that merely repeats the concept, so the
// two fields never carry duplicated semantics.
func normalizeMerchant(merchant *string, concept string) *string {
	if merchant == nil {
		return nil
	}
	m := strings.TrimSpace(*merchant)
	if m == "" {
		return nil
	}
	if strings.EqualFold(m, strings.TrimSpace(concept)) {
		return nil
	}
	return &m
}
