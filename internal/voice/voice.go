// Package voice sequences the utterance pipeline: transcription, intent
// cascade, extraction with validation, persistence and narrative synthesis.
// One call to HandleUtterance processes one utterance end to end; there is no
// shared mutable state between concurrent utterances beyond the store.
package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/numa-labs/numa/internal/brain"
	"github.com/numa-labs/numa/internal/cascade"
	"github.com/numa-labs/numa/internal/extract"
	"github.com/numa-labs/numa/internal/finance"
	"github.com/numa-labs/numa/internal/logger"
	"github.com/numa-labs/numa/internal/transcribe"
)

// Reply types. Callers branch only on Type: "chat" carries a message,
// "transaction" additionally carries the created transactions.
const (
	ReplyChat        = "chat"
	ReplyTransaction = "transaction"
)

// ErrUnintelligibleAudio is returned when neither transcription nor the
// direct audio fallback produced anything usable.
var ErrUnintelligibleAudio = errors.New("could not understand audio")

// Reply is the uniform envelope returned for every utterance.
type Reply struct {
	Type          string                 `json:"type"`
	Message       string                 `json:"message"`
	Transactions  []*finance.Transaction `json:"data,omitempty"`
	Transcription string                 `json:"transcription,omitempty"`
}

// User-facing Spanish messages for the terminal branches.
const (
	msgRepeatPlease     = "No te entendí, repítelo por favor."
	msgAskIncomeDetail  = "¿De qué fue el ingreso y de cuánto fue?"
	msgAskDebtDetail    = "¿A quién le debes y cuánto es?"
	msgAskGenericDetail = "¿Me das más detalle? Por ejemplo qué fue y cuánto costó."
	msgAskAmount        = "¿Cuánto fue? Necesito el monto para registrarlo."
	msgAskConcept       = "¿En qué fue exactamente? Dime qué compraste o de dónde vino el dinero."
)

// Orchestrator drives the per-utterance pipeline.
type Orchestrator struct {
	transcriber transcribe.Transcriber
	classifier  *cascade.Classifier
	extractor   *extract.Extractor
	brain       brain.Client
	finance     *finance.Service
	now         func() time.Time
}

// NewOrchestrator wires the pipeline components together.
func NewOrchestrator(t transcribe.Transcriber, b brain.Client, svc *finance.Service) *Orchestrator {
	return &Orchestrator{
		transcriber: t,
		classifier:  cascade.NewClassifier(b),
		extractor:   extract.NewExtractor(b),
		brain:       b,
		finance:     svc,
		now:         time.Now,
	}
}

// HandleUtterance processes one voice utterance for a user. Audio that cannot
// be transcribed falls back once to direct multimodal extraction; if that
// also fails the utterance is rejected with ErrUnintelligibleAudio.
func (o *Orchestrator) HandleUtterance(ctx context.Context, userID string, audio []byte, mimeType string) (*Reply, error) {
	log := logger.FromContext(ctx)

	text, err := o.transcriber.Transcribe(ctx, audio, transcribe.DefaultLanguage)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil && !errors.Is(err, transcribe.ErrNoSpeech) {
			log.Warn().Err(err).Msg("Transcription failed, attempting direct audio extraction")
		}
		return o.handleAudioFallback(ctx, userID, audio, mimeType)
	}

	log.Info().Str("transcription", text).Msg("Utterance transcribed")

	reply, err := o.HandleText(ctx, userID, text)
	if err != nil {
		return nil, err
	}
	reply.Transcription = text
	return reply, nil
}

// HandleText runs the text pipeline: cascade, then the branch the resolution
// selects. It is also the entry point for typed (non-voice) messages.
func (o *Orchestrator) HandleText(ctx context.Context, userID, text string) (*Reply, error) {
	result := o.classifier.Classify(ctx, text)

	switch {
	case result.Resolution == cascade.ResolutionNoise:
		return chatReply(msgRepeatPlease), nil

	case result.Domain == cascade.DomainMeta:
		return o.chat(ctx, text)

	case result.Domain == cascade.DomainSocial:
		return o.chat(ctx, text)

	case result.Resolution == cascade.ResolutionRead:
		return o.answerQuery(ctx, userID, text)

	case result.Resolution == cascade.ResolutionAmbiguous:
		return chatReply(clarificationFor(text)), nil

	default: // WRITE
		return o.record(ctx, userID, text)
	}
}

// record runs extraction, persists every surviving candidate and synthesizes
// the confirmation narrative. Validation failures never create transactions;
// they become a targeted clarification question.
func (o *Orchestrator) record(ctx context.Context, userID, text string) (*Reply, error) {
	candidates, err := o.extractor.FromText(ctx, text, o.now())
	if err != nil {
		var incomplete *extract.IncompleteError
		if errors.As(err, &incomplete) {
			return chatReply(clarificationForReason(incomplete.Reason)), nil
		}
		return nil, fmt.Errorf("extraction: %w", err)
	}
	return o.persist(ctx, userID, candidates)
}

func (o *Orchestrator) persist(ctx context.Context, userID string, candidates []extract.Candidate) (*Reply, error) {
	log := logger.FromContext(ctx)

	created := make([]*finance.Transaction, 0, len(candidates))
	for _, c := range candidates {
		category := c.Category
		tx, err := o.finance.CreateProvisional(ctx, finance.CreateParams{
			UserID:   userID,
			Type:     c.Type,
			Amount:   c.Amount,
			Concept:  c.Concept,
			Merchant: c.Merchant,
			Category: &category,
			Date:     c.Date,
		})
		if err != nil {
			return nil, fmt.Errorf("persisting candidate %q: %w", c.Concept, err)
		}
		log.Info().
			Str("transaction_id", tx.ID).
			Str("type", string(tx.Type)).
			Float64("amount", tx.Amount).
			Msg("Provisional transaction created")
		created = append(created, tx)
	}

	return &Reply{
		Type:         ReplyTransaction,
		Message:      Narrate(created),
		Transactions: created,
	}, nil
}

// handleAudioFallback is the best-effort secondary attempt: one direct
// audio-to-extraction call, not a retry of transcription.
func (o *Orchestrator) handleAudioFallback(ctx context.Context, userID string, audio []byte, mimeType string) (*Reply, error) {
	candidates, err := o.extractor.FromAudio(ctx, audio, mimeType, o.now())
	if err != nil {
		var incomplete *extract.IncompleteError
		if errors.As(err, &incomplete) {
			return chatReply(msgRepeatPlease), nil
		}
		return nil, ErrUnintelligibleAudio
	}
	return o.persist(ctx, userID, candidates)
}

func (o *Orchestrator) chat(ctx context.Context, text string) (*Reply, error) {
	reply, err := o.brain.GenerateChatReply(ctx, text, brain.ModeChat)
	if err != nil {
		return nil, fmt.Errorf("generating chat reply: %w", err)
	}
	return chatReply(reply), nil
}

func chatReply(message string) *Reply {
	return &Reply{Type: ReplyChat, Message: message}
}

// clarificationFor picks the follow-up question for an ambiguous utterance by
// keyword sniffing, no model call involved.
func clarificationFor(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "ingreso") || strings.Contains(lowered, "income"):
		return msgAskIncomeDetail
	case strings.Contains(lowered, "deuda") || strings.Contains(lowered, "debt"):
		return msgAskDebtDetail
	default:
		return msgAskGenericDetail
	}
}

func clarificationForReason(r extract.Reason) string {
	if r == extract.ReasonMissingAmount {
		return msgAskAmount
	}
	return msgAskConcept
}
