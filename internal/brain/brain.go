// Package brain is the reasoning collaborator: a remote structured-inference
// engine reached through discrete request/response calls. Callers depend on
// the Client interface so the engine can be swapped or mocked; the production
// implementation is Gemini (gemini.go).
package brain

import (
	"context"
	"errors"
	"time"
)

// Domain labels for the macro classification stage.
const (
	DomainMeta      = "META"
	DomainSocial    = "SOCIAL"
	DomainFinancial = "FINANCIAL"
)

// Resolution labels for the micro classification stage.
const (
	ResolutionRead      = "READ"
	ResolutionAmbiguous = "AMBIGUOUS"
	ResolutionWrite     = "WRITE"
)

// Chat generation modes.
const (
	ModeChat = "CHAT"
)

// ErrBadModelOutput signals a malformed or non-JSON model response. It is a
// recoverable failure: classification layers absorb it with defaults and
// extraction surfaces it as a hard extraction error.
var ErrBadModelOutput = errors.New("malformed model output")

// RawCandidate is one unvalidated transaction guess extracted from text or
// audio. Merchant is nil unless the model explicitly named one.
type RawCandidate struct {
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Concept  string  `json:"concept"`
	Merchant *string `json:"merchant"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
}

// QueryFilters narrow a financial read query. Empty fields mean "no filter";
// dates are ISO YYYY-MM-DD.
type QueryFilters struct {
	Category  string `json:"category"`
	Type      string `json:"type"`
	Merchant  string `json:"merchant"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// QueryAnalysis is the interpreted intent of a financial question.
type QueryAnalysis struct {
	Intent  string       `json:"intent"` // QUERY or CHAT
	Filters QueryFilters `json:"filters"`
}

// ReceiptData is what document analysis extracts from a receipt image.
type ReceiptData struct {
	Vendor string
	Amount float64
	Date   time.Time
}

// Client is the injected reasoning capability. Every method is a single
// blocking-but-cancelable request; none of them retry.
type Client interface {
	// ClassifyDomain returns the coarse domain of an utterance: META,
	// SOCIAL or FINANCIAL.
	ClassifyDomain(ctx context.Context, text string) (string, error)

	// ClassifyResolution returns the fine-grained resolution of financial
	// text: READ, AMBIGUOUS or WRITE.
	ClassifyResolution(ctx context.Context, text string) (string, error)

	// ExtractCandidates extracts zero or more transaction candidates from
	// confirmed write text. The result is always a list, even for a single
	// movement.
	ExtractCandidates(ctx context.Context, text string, today time.Time) ([]RawCandidate, error)

	// AnalyzeQueryIntent interprets a financial question into filters.
	AnalyzeQueryIntent(ctx context.Context, text string, today time.Time) (QueryAnalysis, error)

	// GenerateChatReply produces a short conversational answer for
	// non-transactional utterances.
	GenerateChatReply(ctx context.Context, text, mode string) (string, error)

	// AnalyzeReceipt extracts vendor, amount and date from a receipt image.
	AnalyzeReceipt(ctx context.Context, image []byte, mimeType string) (ReceiptData, error)

	// ExtractFromAudio is the best-effort multimodal fallback used when
	// transcription fails: it extracts candidates directly from audio.
	ExtractFromAudio(ctx context.Context, audio []byte, mimeType string, today time.Time) ([]RawCandidate, error)
}
