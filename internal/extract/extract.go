// Package extract turns free text into validated transaction candidates.
// Model output is never trusted directly: every candidate passes through a
// deterministic gate before it can reach storage.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/numa-labs/numa/internal/brain"
	"github.com/numa-labs/numa/internal/finance"
	"github.com/numa-labs/numa/internal/logger"
)

// Reason identifies why a candidate was rejected by the gate.
type Reason string

const (
	ReasonMissingAmount  Reason = "missing_amount"
	ReasonGenericConcept Reason = "generic_concept"
)

// IncompleteError is returned when no candidate survives validation. Reason
// carries the most specific rejection so the caller can phrase a follow-up
// question instead of a generic apology.
type IncompleteError struct {
	Reason Reason
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("extraction incomplete: %s", e.Reason)
}

// Candidate is a validated transaction draft ready for persistence.
type Candidate struct {
	Type     finance.Type
	Amount   float64
	Concept  string
	Merchant *string
	Category string
	Date     *time.Time
}

// genericConcepts are concept values that restate the act of spending
// without naming what was bought. A candidate whose concept collapses to
// one of these and carries no amount is rejected.
var genericConcepts = map[string]bool{
	"gasto": true, "gastos": true,
	"ingreso": true, "ingresos": true,
	"deuda": true, "deudas": true,
	"compra": true, "compras": true,
	"pago": true, "pagos": true,
	"dinero": true,
	"cosa": true, "cosas": true,
	"expense": true, "income": true, "debt": true,
	"purchase": true, "payment": true, "money": true,
	"thing": true, "stuff": true,
}

// minConceptLen rejects concepts too short to describe anything.
const minConceptLen = 3

// Extractor runs model extraction followed by the gate.
type Extractor struct {
	brain brain.Client
}

// NewExtractor creates an extractor on the given reasoning client.
func NewExtractor(b brain.Client) *Extractor {
	return &Extractor{brain: b}
}

// FromText extracts candidates from an utterance. It returns
// *IncompleteError when the text carried no usable transaction.
func (e *Extractor) FromText(ctx context.Context, text string, today time.Time) ([]Candidate, error) {
	raw, err := e.brain.ExtractCandidates(ctx, text, today)
	if err != nil {
		return nil, fmt.Errorf("extracting candidates: %w", err)
	}
	return Gate(ctx, raw)
}

// FromAudio extracts candidates directly from audio, used when transcription
// produced nothing usable but the recording may still carry speech.
func (e *Extractor) FromAudio(ctx context.Context, audio []byte, mimeType string, today time.Time) ([]Candidate, error) {
	raw, err := e.brain.ExtractFromAudio(ctx, audio, mimeType, today)
	if err != nil {
		return nil, fmt.Errorf("extracting candidates from audio: %w", err)
	}
	return Gate(ctx, raw)
}

// Gate validates raw model candidates. Candidates failing any check are
// dropped; if none survive, the error reports the most specific rejection
// seen, preferring a concrete missing field over a generic concept.
func Gate(ctx context.Context, raw []brain.RawCandidate) ([]Candidate, error) {
	log := logger.FromContext(ctx)

	var (
		valid         []Candidate
		sawNoAmount   bool
		sawGenericCpt bool
	)

	for _, rc := range raw {
		c, reason, ok := validateCandidate(rc)
		if !ok {
			switch reason {
			case ReasonMissingAmount:
				sawNoAmount = true
			case ReasonGenericConcept:
				sawGenericCpt = true
			}
			log.Debug().
				Str("concept", rc.Concept).
				Float64("amount", rc.Amount).
				Str("reason", string(reason)).
				Msg("Dropping extraction candidate")
			continue
		}
		valid = append(valid, c)
	}

	if len(valid) == 0 {
		switch {
		case sawNoAmount:
			return nil, &IncompleteError{Reason: ReasonMissingAmount}
		case sawGenericCpt:
			return nil, &IncompleteError{Reason: ReasonGenericConcept}
		default:
			return nil, &IncompleteError{Reason: ReasonGenericConcept}
		}
	}
	return valid, nil
}

func validateCandidate(rc brain.RawCandidate) (Candidate, Reason, bool) {
	concept := strings.TrimSpace(rc.Concept)
	vague := concept == "" ||
		len([]rune(concept)) < minConceptLen ||
		genericConcepts[strings.ToLower(concept)]

	// A concrete amount is enough to persist. Without one, a vague concept
	// means the user needs to say what this is about; a concrete concept
	// means only the amount is missing.
	if rc.Amount <= 0 {
		if vague {
			return Candidate{}, ReasonGenericConcept, false
		}
		return Candidate{}, ReasonMissingAmount, false
	}
	if concept == "" {
		// Nothing to persist under, even with an amount.
		return Candidate{}, ReasonGenericConcept, false
	}

	txType := finance.ParseType(rc.Type)

	merchant := rc.Merchant
	if merchant != nil {
		m := strings.TrimSpace(*merchant)
		if m == "" || strings.EqualFold(m, concept) {
			merchant = nil
		} else {
			merchant = &m
		}
	}

	// The model proposes a category; the taxonomy has the final word.
	category, ok := finance.ValidCategory(rc.Category)
	if !ok {
		category = finance.Categorize(concept, merchant, txType)
	}

	var date *time.Time
	if rc.Date != "" {
		if d, err := time.Parse("2006-01-02", rc.Date); err == nil {
			date = &d
		}
	}

	return Candidate{
		Type:     txType,
		Amount:   rc.Amount,
		Concept:  concept,
		Merchant: merchant,
		Category: category,
		Date:     date,
	}, "", true
}
