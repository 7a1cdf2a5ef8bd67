package finance

import (
	"context"
	"time"
)

// Filter narrows transaction reads. The zero value matches everything owned
// by the user; all queries are user-scoped by construction.
type Filter struct {
	Statuses  []Status
	Type      Type
	Category  string
	Merchant  string
	StartDate *time.Time
	EndDate   *time.Time
}

// Summary is an aggregate over a filtered set of transactions.
type Summary struct {
	Total float64
	Count int
}

// Store is the persistence collaborator for transactions.
//
// UpdateIfProvisional must be atomic: the implementation applies the update
// only while the stored status is still provisional, so two concurrent
// verifications of the same id cannot both succeed. It returns ErrNotFound
// when the id does not exist and ErrInvalidState when the row exists but has
// already left the provisional state.
type Store interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	UpdateIfProvisional(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, userID string, f Filter) ([]*Transaction, error)
	SummarizeTransactions(ctx context.Context, userID string, f Filter) (Summary, error)
}
