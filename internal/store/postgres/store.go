// Package postgres implements the persistence layer on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/numa-labs/numa/internal/finance"
)

// Store persists transactions in the transactions table. All list and
// summarize queries are filtered by user_id; there is no unscoped read path.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store on an existing connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pgx pool for the given connection string.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

const txColumns = `id, user_id, type, amount, concept, merchant, category, status,
	transaction_date, transaction_time, created_at, updated_at`

// CreateTransaction implements finance.Store.
func (s *Store) CreateTransaction(ctx context.Context, tx *finance.Transaction) error {
	query := `
		INSERT INTO transactions (` + txColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.pool.Exec(ctx, query,
		tx.ID, tx.UserID, string(tx.Type), tx.Amount, tx.Concept,
		tx.Merchant, tx.Category, string(tx.Status),
		tx.TransactionDate, nullIfEmpty(tx.TransactionTime),
		tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetTransaction implements finance.Store.
func (s *Store) GetTransaction(ctx context.Context, id string) (*finance.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, finance.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// UpdateIfProvisional implements finance.Store. The status guard in the WHERE
// clause is what makes a concurrent double-verify lose: the second writer
// matches zero rows and gets ErrInvalidState.
func (s *Store) UpdateIfProvisional(ctx context.Context, tx *finance.Transaction) error {
	query := `
		UPDATE transactions
		SET amount = $2, concept = $3, merchant = $4, category = $5, status = $6,
		    transaction_date = $7, transaction_time = $8, updated_at = $9
		WHERE id = $1 AND status = $10`

	tag, err := s.pool.Exec(ctx, query,
		tx.ID, tx.Amount, tx.Concept, tx.Merchant, tx.Category, string(tx.Status),
		tx.TransactionDate, nullIfEmpty(tx.TransactionTime), tx.UpdatedAt,
		string(finance.StatusProvisional),
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a lost verification race.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, tx.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check transaction existence: %w", err)
		}
		if !exists {
			return finance.ErrNotFound
		}
		return finance.ErrInvalidState
	}
	return nil
}

// ListTransactions implements finance.Store.
func (s *Store) ListTransactions(ctx context.Context, userID string, f finance.Filter) ([]*finance.Transaction, error) {
	query, args := buildFilterQuery(`SELECT `+txColumns+` FROM transactions`, userID, f)
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []*finance.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

// SummarizeTransactions implements finance.Store.
func (s *Store) SummarizeTransactions(ctx context.Context, userID string, f finance.Filter) (finance.Summary, error) {
	query, args := buildFilterQuery(
		`SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM transactions`, userID, f)

	var sum finance.Summary
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&sum.Total, &sum.Count); err != nil {
		return finance.Summary{}, fmt.Errorf("summarize transactions: %w", err)
	}
	return sum, nil
}

func buildFilterQuery(base, userID string, f finance.Filter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		conds = append(conds, "status = ANY("+arg(statuses)+")")
	}
	if f.Type != "" {
		conds = append(conds, "type = "+arg(string(f.Type)))
	}
	if f.Category != "" {
		conds = append(conds, "LOWER(category) = LOWER("+arg(f.Category)+")")
	}
	if f.Merchant != "" {
		conds = append(conds, "LOWER(merchant) = LOWER("+arg(f.Merchant)+")")
	}
	if f.StartDate != nil {
		conds = append(conds, "created_at >= "+arg(*f.StartDate))
	}
	if f.EndDate != nil {
		conds = append(conds, "created_at <= "+arg(*f.EndDate))
	}

	return base + " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*finance.Transaction, error) {
	var (
		tx       finance.Transaction
		typ      string
		status   string
		timeOfTx *string
	)
	err := row.Scan(
		&tx.ID, &tx.UserID, &typ, &tx.Amount, &tx.Concept,
		&tx.Merchant, &tx.Category, &status,
		&tx.TransactionDate, &timeOfTx, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Type = finance.Type(typ)
	tx.Status = finance.Status(status)
	if timeOfTx != nil {
		tx.TransactionTime = *timeOfTx
	}
	return &tx, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ finance.Store = (*Store)(nil)
