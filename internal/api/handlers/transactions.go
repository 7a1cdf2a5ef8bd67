package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/numa-labs/numa/internal/api/middleware"
	"github.com/numa-labs/numa/internal/finance"
	"github.com/numa-labs/numa/internal/jobs"
	"github.com/numa-labs/numa/internal/receipts"
)

const maxReceiptBytes = 15 << 20

// TransactionsHandler handles transaction listing and verification.
type TransactionsHandler struct {
	finance   *finance.Service
	verifier  *receipts.Verifier
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler. publisher may be
// nil when export is not configured.
func NewTransactionsHandler(svc *finance.Service, verifier *receipts.Verifier, publisher jobs.Publisher, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{finance: svc, verifier: verifier, publisher: publisher, log: log}
}

// List handles GET /api/transactions
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	filter := finance.Filter{
		Category: r.URL.Query().Get("category"),
		Merchant: r.URL.Query().Get("merchant"),
	}
	if t := r.URL.Query().Get("type"); t != "" {
		filter.Type = finance.ParseType(t)
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Statuses = []finance.Status{finance.Status(s)}
	}
	if d, err := time.Parse("2006-01-02", r.URL.Query().Get("start_date")); err == nil {
		filter.StartDate = &d
	}
	if d, err := time.Parse("2006-01-02", r.URL.Query().Get("end_date")); err == nil {
		filter.EndDate = &d
	}

	txs, err := h.finance.List(ctx, userID, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// Get handles GET /api/transactions/:id
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	tx, err := h.finance.Get(ctx, transactionID)
	if err != nil {
		h.writeTransactionError(w, err)
		return
	}
	if tx.UserID != userID {
		middleware.WriteError(w, http.StatusForbidden, "Transaction belongs to another user")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, tx)
}

// Verify handles POST /api/transactions/:id/verify. The receipt arrives as a
// multipart "receipt" part, or as JSON {"gcs_uri": ...} referencing an
// archived image.
func (h *TransactionsHandler) Verify(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var (
		tx  *finance.Transaction
		err error
	)

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if contentType == "application/json" {
		var req struct {
			GCSURI string `json:"gcs_uri"`
		}
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil || req.GCSURI == "" {
			middleware.WriteError(w, http.StatusBadRequest, "gcs_uri is required")
			return
		}
		tx, err = h.verifier.VerifyWithStoredImage(ctx, userID, transactionID, req.GCSURI)
	} else {
		image, mimeType, readErr := readReceipt(r)
		if readErr != nil {
			middleware.WriteError(w, http.StatusBadRequest, readErr.Error())
			return
		}
		tx, err = h.verifier.VerifyWithImage(ctx, userID, transactionID, image, mimeType)
	}

	if err != nil {
		h.writeTransactionError(w, err)
		return
	}

	h.enqueueExport(ctx, tx)
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// VerifyManual handles POST /api/transactions/:id/verify-manual
func (h *TransactionsHandler) VerifyManual(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	tx, err := h.verifier.VerifyManually(ctx, userID, transactionID)
	if err != nil {
		h.writeTransactionError(w, err)
		return
	}

	h.enqueueExport(ctx, tx)
	middleware.WriteJSON(w, http.StatusOK, tx)
}

func (h *TransactionsHandler) enqueueExport(ctx context.Context, tx *finance.Transaction) {
	if h.publisher == nil {
		return
	}
	job := &jobs.ExportTransactionJob{TransactionID: tx.ID, UserID: tx.UserID}
	if err := h.publisher.PublishExport(ctx, job); err != nil {
		// The transaction is already verified; export will be retried by
		// a later sweep, so the request still succeeds.
		h.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Failed to enqueue export")
	}
}

func (h *TransactionsHandler) writeTransactionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, finance.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, finance.ErrInvalidState):
		middleware.WriteError(w, http.StatusConflict, "Transaction is not in provisional state")
	case errors.Is(err, finance.ErrNotOwner):
		middleware.WriteError(w, http.StatusForbidden, "Transaction belongs to another user")
	case errors.Is(err, receipts.ErrUnreadableReceipt):
		middleware.WriteError(w, http.StatusUnprocessableEntity, "Could not read receipt")
	default:
		h.log.Error().Err(err).Msg("Transaction operation failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Operation failed")
	}
}

func readReceipt(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		return nil, "", errors.New("invalid multipart form")
	}
	file, header, err := r.FormFile("receipt")
	if err != nil {
		return nil, "", errors.New("receipt file is required")
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxReceiptBytes))
	if err != nil || len(image) == 0 {
		return nil, "", errors.New("failed to read receipt")
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return image, mimeType, nil
}
