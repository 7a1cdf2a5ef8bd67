package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/numa-labs/numa/internal/finance"
	"github.com/numa-labs/numa/internal/logger"
)

// Syncer upserts transactions into one Notion database.
type Syncer struct {
	notion     NotionService
	databaseID string
}

// NewSyncer creates a syncer for the given database.
func NewSyncer(notion NotionService, databaseID string) *Syncer {
	return &Syncer{notion: notion, databaseID: databaseID}
}

// SyncTransaction creates the page for a transaction, or updates it when a
// page with the same transaction id already exists. Repeated syncs of the
// same transaction are therefore idempotent.
func (s *Syncer) SyncTransaction(ctx context.Context, tx *finance.Transaction) error {
	log := logger.FromContext(ctx)

	existing, err := s.findPage(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("looking up page for %s: %w", tx.ID, err)
	}

	props := TransactionToProperties(tx)

	if existing != "" {
		if _, err := s.notion.UpdatePage(ctx, existing, props); err != nil {
			return fmt.Errorf("updating page for %s: %w", tx.ID, err)
		}
		log.Debug().Str("transaction_id", tx.ID).Str("page_id", existing).Msg("Notion page updated")
		return nil
	}

	page, err := s.notion.CreatePage(ctx, s.databaseID, props)
	if err != nil {
		return fmt.Errorf("creating page for %s: %w", tx.ID, err)
	}
	log.Debug().Str("transaction_id", tx.ID).Str("page_id", string(page.ID)).Msg("Notion page created")
	return nil
}

// findPage returns the page id holding the transaction, or empty when none.
func (s *Syncer) findPage(ctx context.Context, transactionID string) (string, error) {
	resp, err := s.notion.QueryDatabase(ctx, s.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Transaction ID",
			RichText: &notionapi.TextFilterCondition{Equals: transactionID},
		},
		PageSize: 1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return string(resp.Results[0].ID), nil
}
