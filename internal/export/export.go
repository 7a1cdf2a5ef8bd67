// Package export is the worker-side job handler: it loads a verified
// transaction and mirrors it into the configured sinks.
package export

import (
	"context"
	"fmt"

	"github.com/numa-labs/numa/internal/analytics"
	"github.com/numa-labs/numa/internal/finance"
	"github.com/numa-labs/numa/internal/jobs"
	"github.com/numa-labs/numa/internal/logger"
	"github.com/numa-labs/numa/internal/notionsync"
)

// Handler processes export jobs. Either sink may be nil when not configured;
// a nil sink is skipped, not an error.
type Handler struct {
	finance *finance.Service
	ledger  analytics.Exporter
	notion  *notionsync.Syncer
}

// NewHandler wires the export handler.
func NewHandler(svc *finance.Service, ledger analytics.Exporter, notion *notionsync.Syncer) *Handler {
	return &Handler{finance: svc, ledger: ledger, notion: notion}
}

// Handle implements jobs.JobHandler for export jobs. Only verified
// transactions are exported; a provisional one means the job raced a
// verification rollback and is dropped without error.
func (h *Handler) Handle(ctx context.Context, job jobs.Job) error {
	exportJob, ok := job.(*jobs.ExportTransactionJob)
	if !ok {
		return fmt.Errorf("unexpected job type: %T", job)
	}

	log := logger.FromContext(ctx)

	tx, err := h.finance.Get(ctx, exportJob.TransactionID)
	if err != nil {
		return fmt.Errorf("loading transaction %s: %w", exportJob.TransactionID, err)
	}
	if tx.Status == finance.StatusProvisional {
		log.Warn().Str("transaction_id", tx.ID).Msg("Skipping export of provisional transaction")
		return nil
	}

	if h.ledger != nil {
		if err := h.ledger.ExportTransaction(ctx, tx); err != nil {
			return fmt.Errorf("exporting to ledger: %w", err)
		}
	}
	if h.notion != nil {
		if err := h.notion.SyncTransaction(ctx, tx); err != nil {
			return fmt.Errorf("syncing to notion: %w", err)
		}
	}

	log.Info().
		Str("job_id", exportJob.JobID).
		Str("transaction_id", tx.ID).
		Msg("Transaction exported")
	return nil
}
