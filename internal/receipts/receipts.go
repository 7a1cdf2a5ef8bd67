// Package receipts orchestrates transaction verification: a receipt image is
// analyzed by the reasoning collaborator and its vendor, amount and date
// overwrite the provisional draft; without a document the user confirms
// manually and only the status and category change.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/numa-labs/numa/internal/brain"
	"github.com/numa-labs/numa/internal/finance"
	"github.com/numa-labs/numa/internal/gcs"
	"github.com/numa-labs/numa/internal/logger"
)

// ErrUnreadableReceipt is returned when the document analysis could not
// extract a usable amount from the image.
var ErrUnreadableReceipt = errors.New("could not read receipt")

// Verifier runs both verification flows. Ownership is enforced here so the
// transaction state machine stays requester-agnostic.
type Verifier struct {
	brain   brain.Client
	finance *finance.Service
	archive gcs.Archive
}

// NewVerifier wires the verification flow.
func NewVerifier(b brain.Client, svc *finance.Service, archive gcs.Archive) *Verifier {
	return &Verifier{brain: b, finance: svc, archive: archive}
}

// VerifyWithImage verifies a provisional transaction against a receipt image.
// The receipt is archived before analysis so a failed verification can be
// retried from storage.
func (v *Verifier) VerifyWithImage(ctx context.Context, userID, transactionID string, image []byte, mimeType string) (*finance.Transaction, error) {
	log := logger.FromContext(ctx)

	if err := v.checkOwnership(ctx, userID, transactionID); err != nil {
		return nil, err
	}

	if v.archive != nil {
		uri, err := v.archive.StoreReceipt(ctx, userID, image, mimeType)
		if err != nil {
			// Archival is best effort; verification proceeds on the in-memory copy.
			log.Warn().Err(err).Msg("Failed to archive receipt")
		} else {
			log.Info().Str("uri", uri).Msg("Receipt archived")
		}
	}

	return v.verify(ctx, transactionID, image, mimeType)
}

// VerifyWithStoredImage verifies using a receipt already in the archive.
func (v *Verifier) VerifyWithStoredImage(ctx context.Context, userID, transactionID, uri string) (*finance.Transaction, error) {
	if err := v.checkOwnership(ctx, userID, transactionID); err != nil {
		return nil, err
	}

	if v.archive == nil {
		return nil, fmt.Errorf("no archive configured")
	}
	image, err := v.archive.Fetch(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("fetching receipt %s: %w", uri, err)
	}
	return v.verify(ctx, transactionID, image, mimeTypeForObject(uri))
}

// VerifyManually confirms a transaction without a document. Amount, concept
// and merchant stay untouched; a category is assigned if the draft has none.
func (v *Verifier) VerifyManually(ctx context.Context, userID, transactionID string) (*finance.Transaction, error) {
	tx, err := v.finance.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, finance.ErrNotOwner
	}

	var category *string
	if tx.Category == nil {
		c := finance.Categorize(tx.Concept, tx.Merchant, tx.Type)
		category = &c
	}
	return v.finance.VerifyManually(ctx, transactionID, category)
}

func (v *Verifier) verify(ctx context.Context, transactionID string, image []byte, mimeType string) (*finance.Transaction, error) {
	log := logger.FromContext(ctx)

	receipt, err := v.brain.AnalyzeReceipt(ctx, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("analyzing receipt: %w", err)
	}
	if receipt.Amount <= 0 {
		return nil, ErrUnreadableReceipt
	}

	tx, err := v.finance.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	// The document's vendor decides the category for the verified record.
	vendor := strings.TrimSpace(receipt.Vendor)
	var merchantPtr *string
	if vendor != "" {
		merchantPtr = &vendor
	}
	category := finance.Categorize(tx.Concept, merchantPtr, tx.Type)

	verified, err := v.finance.VerifyWithDocument(ctx, transactionID, finance.DocumentData{
		Amount:   receipt.Amount,
		Merchant: vendor,
		Date:     receipt.Date,
		Category: &category,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("transaction_id", verified.ID).
		Float64("amount", verified.Amount).
		Str("category", category).
		Msg("Transaction verified with document")
	return verified, nil
}

func (v *Verifier) checkOwnership(ctx context.Context, userID, transactionID string) error {
	tx, err := v.finance.Get(ctx, transactionID)
	if err != nil {
		return err
	}
	if tx.UserID != userID {
		return finance.ErrNotOwner
	}
	return nil
}

func mimeTypeForObject(uri string) string {
	name := strings.ToLower(gcs.ObjectName(uri))
	switch {
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	default:
		return "image/jpeg"
	}
}
