package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestVerifyContentTypeRouting(t *testing.T) {
	h := NewTransactionsHandler(nil, nil, nil, zerolog.Nop())

	// A JSON body without gcs_uri must reach the JSON branch and fail its
	// own validation, regardless of charset parameters on the media type.
	for _, contentType := range []string{
		"application/json",
		"application/json; charset=utf-8",
		"application/json;charset=UTF-8",
	} {
		r := httptest.NewRequest(http.MethodPost, "/api/transactions/tx-1/verify", strings.NewReader("{}"))
		r.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		h.Verify(w, r, "tx-1")

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", contentType, w.Code)
		}
		if !strings.Contains(w.Body.String(), "gcs_uri is required") {
			t.Errorf("%s: body = %q, want the JSON branch validation message", contentType, w.Body.String())
		}
	}
}
