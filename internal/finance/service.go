package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service owns the transaction lifecycle. It is deliberately agnostic to who
// the requester is: ownership checks belong to the orchestrator, and category
// computation belongs to the caller (see Categorize). The service only
// persists what it is given.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a transaction service on top of a Store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CreateParams are the inputs for a provisional transaction.
type CreateParams struct {
	UserID   string
	Type     Type
	Amount   float64
	Concept  string
	Merchant *string
	Category *string
	Date     *time.Time
}

// CreateProvisional persists a new transaction in the provisional state.
// A persisted transaction always has amount > 0 and a non-empty concept;
// zero-amount drafts must be filtered out before reaching this point.
func (s *Service) CreateProvisional(ctx context.Context, p CreateParams) (*Transaction, error) {
	concept := strings.TrimSpace(p.Concept)
	if concept == "" {
		return nil, fmt.Errorf("%w: empty concept", ErrInvalidInput)
	}
	if p.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidInput, p.Amount)
	}

	now := s.now()
	tx := &Transaction{
		ID:              uuid.NewString(),
		UserID:          p.UserID,
		Type:            p.Type,
		Amount:          p.Amount,
		Concept:         concept,
		Merchant:        normalizeMerchant(p.Merchant, concept),
		Category:        p.Category,
		Status:          StatusProvisional,
		TransactionDate: p.Date,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("create provisional transaction: %w", err)
	}
	return tx, nil
}

// DocumentData is what a source document asserts about a transaction. The
// document is the source of truth for amount, merchant and date.
type DocumentData struct {
	Amount   float64
	Merchant string
	Date     time.Time
	Category *string
}

// VerifyWithDocument moves a provisional transaction to verified, overwriting
// amount, merchant, date and time with the document's data.
func (s *Service) VerifyWithDocument(ctx context.Context, transactionID string, doc DocumentData) (*Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != StatusProvisional {
		return nil, fmt.Errorf("%w: current state %q", ErrInvalidState, tx.Status)
	}

	date := doc.Date
	tx.Amount = doc.Amount
	tx.Merchant = normalizeMerchant(&doc.Merchant, tx.Concept)
	tx.TransactionDate = &date
	tx.TransactionTime = date.Format("15:04:05")
	tx.Status = StatusVerified
	if doc.Category != nil {
		tx.Category = doc.Category
	}
	tx.UpdatedAt = s.now()

	if err := s.store.UpdateIfProvisional(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// VerifyManually moves a provisional transaction to verified_manual. No
// document exists, so amount, concept and merchant stay untouched.
func (s *Service) VerifyManually(ctx context.Context, transactionID string, category *string) (*Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != StatusProvisional {
		return nil, fmt.Errorf("%w: current state %q", ErrInvalidState, tx.Status)
	}

	tx.Status = StatusVerifiedManual
	if category != nil {
		tx.Category = category
	}
	tx.UpdatedAt = s.now()

	if err := s.store.UpdateIfProvisional(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Get returns a transaction by id.
func (s *Service) Get(ctx context.Context, transactionID string) (*Transaction, error) {
	return s.store.GetTransaction(ctx, transactionID)
}

// List returns the user's transactions matching the filter.
func (s *Service) List(ctx context.Context, userID string, f Filter) ([]*Transaction, error) {
	return s.store.ListTransactions(ctx, userID, f)
}

// Summarize aggregates verified movement for the user. Callers that also want
// pending provisional balance filter for it separately.
func (s *Service) Summarize(ctx context.Context, userID string, f Filter) (Summary, error) {
	return s.store.SummarizeTransactions(ctx, userID, f)
}
