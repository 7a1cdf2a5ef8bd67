// Package analytics mirrors verified transactions into a BigQuery ledger for
// offline reporting. The ledger is append-only; the operational store in
// Postgres remains the source of truth.
package analytics

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/numa-labs/numa/internal/finance"
)

const ledgerTable = "transactions"

// LedgerRow is the BigQuery shape of a verified transaction.
type LedgerRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	Type     string              `bigquery:"type"`     // REQUIRED
	Amount   *big.Rat            `bigquery:"amount"`   // REQUIRED NUMERIC
	Concept  string              `bigquery:"concept"`  // REQUIRED
	Merchant bigquery.NullString `bigquery:"merchant"` // NULLABLE
	Category bigquery.NullString `bigquery:"category"` // NULLABLE
	Status   string              `bigquery:"status"`   // REQUIRED

	TransactionDate bigquery.NullDate   `bigquery:"transaction_date"` // NULLABLE
	TransactionTime bigquery.NullString `bigquery:"transaction_time"` // NULLABLE

	ExportedTS time.Time `bigquery:"exported_ts"` // REQUIRED
}

// Exporter is what the worker depends on, kept narrow for mocking.
type Exporter interface {
	ExportTransaction(ctx context.Context, tx *finance.Transaction) error
}

// MonthlyTotal is one aggregation bucket of a report query.
type MonthlyTotal struct {
	Month    string   `bigquery:"month"`
	Type     string   `bigquery:"type"`
	Total    *big.Rat `bigquery:"total"`
	TxnCount int64    `bigquery:"txn_count"`
}

// BigQueryExporter writes ledger rows with a shared client.
type BigQueryExporter struct {
	client  *bigquery.Client
	project string
	dataset string
	schema  bigquery.Schema
}

// NewBigQueryExporter creates an exporter bound to a project and dataset.
func NewBigQueryExporter(ctx context.Context, project, dataset string) (*BigQueryExporter, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	schema, err := bigquery.InferSchema(LedgerRow{})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("inferring ledger schema: %w", err)
	}
	return &BigQueryExporter{client: client, project: project, dataset: dataset, schema: schema}, nil
}

// Close releases the underlying client.
func (e *BigQueryExporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// ExportTransaction appends one verified transaction to the ledger. The
// transaction id doubles as the streaming insert id so repeated exports of
// the same transaction are deduplicated by BigQuery.
func (e *BigQueryExporter) ExportTransaction(ctx context.Context, tx *finance.Transaction) error {
	saver := &bigquery.StructSaver{
		Schema:   e.schema,
		InsertID: tx.ID,
		Struct:   rowFromTransaction(tx),
	}
	table := e.client.DatasetInProject(e.project, e.dataset).Table(ledgerTable)
	if err := table.Inserter().Put(ctx, saver); err != nil {
		return fmt.Errorf("inserting ledger row for %s: %w", tx.ID, err)
	}
	return nil
}

// QueryMonthlyTotals aggregates the ledger per month and type over a range.
func (e *BigQueryExporter) QueryMonthlyTotals(ctx context.Context, userID string, start, end time.Time) ([]*MonthlyTotal, error) {
	q := e.client.Query(fmt.Sprintf(`
		SELECT
			FORMAT_DATE('%%Y-%%m', transaction_date) AS month,
			type,
			SUM(amount) AS total,
			COUNT(*) AS txn_count
		FROM %s.%s
		WHERE user_id = @user_id
		  AND transaction_date >= @start_date
		  AND transaction_date <= @end_date
		GROUP BY month, type
		ORDER BY month, type
	`, e.dataset, ledgerTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: start.Format("2006-01-02")},
		{Name: "end_date", Value: end.Format("2006-01-02")},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading monthly totals: %w", err)
	}

	var totals []*MonthlyTotal
	for {
		var row MonthlyTotal
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating monthly totals: %w", err)
		}
		totals = append(totals, &row)
	}
	return totals, nil
}

func rowFromTransaction(tx *finance.Transaction) *LedgerRow {
	row := &LedgerRow{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Type:          string(tx.Type),
		Amount:        new(big.Rat).SetFloat64(tx.Amount),
		Concept:       tx.Concept,
		Status:        string(tx.Status),
		ExportedTS:    time.Now(),
	}
	if tx.Merchant != nil {
		row.Merchant = bigquery.NullString{StringVal: *tx.Merchant, Valid: true}
	}
	if tx.Category != nil {
		row.Category = bigquery.NullString{StringVal: *tx.Category, Valid: true}
	}
	if tx.TransactionDate != nil {
		row.TransactionDate = bigquery.NullDate{Date: civil.DateOf(*tx.TransactionDate), Valid: true}
	}
	if tx.TransactionTime != "" {
		row.TransactionTime = bigquery.NullString{StringVal: tx.TransactionTime, Valid: true}
	}
	return row
}

var _ Exporter = (*BigQueryExporter)(nil)
