// Package cascade implements the two-stage intent classification applied to
// each utterance: coarse domain first (META / SOCIAL / FINANCIAL), then, for
// financial text, fine-grained resolution (READ / AMBIGUOUS / WRITE).
//
// The classifier fails open: a collaborator error during the macro stage
// defaults to FINANCIAL, and during the micro stage to WRITE, so a flaky
// model never stalls the conversation. Neither stage retries.
package cascade

import (
	"context"
	"strings"

	"github.com/numa-labs/numa/internal/brain"
	"github.com/numa-labs/numa/internal/logger"
)

// Domain is the coarse classification of an utterance.
type Domain string

const (
	DomainMeta      Domain = "META"
	DomainSocial    Domain = "SOCIAL"
	DomainFinancial Domain = "FINANCIAL"
)

// Resolution is the fine-grained classification of financial text.
type Resolution string

const (
	ResolutionRead      Resolution = "READ"
	ResolutionAmbiguous Resolution = "AMBIGUOUS"
	ResolutionWrite     Resolution = "WRITE"
	ResolutionNoise     Resolution = "NOISE"
)

// Result is the ephemeral outcome of classifying one utterance. Resolution
// is only meaningful when Domain is FINANCIAL, except for NOISE which
// short-circuits both stages.
type Result struct {
	Domain     Domain
	Resolution Resolution
}

// minUtteranceLen is the threshold below which text is treated as noise
// without spending a collaborator call.
const minUtteranceLen = 2

// genericFinancialNouns are utterances that name a financial concept without
// any object or amount. They must resolve to AMBIGUOUS no matter what the
// collaborator answered; the rule is enforced here, locally.
var genericFinancialNouns = map[string]bool{
	"gasto": true, "gastos": true,
	"ingreso": true, "ingresos": true,
	"deuda": true, "deudas": true,
	"compra": true, "compras": true,
	"pago": true, "pagos": true,
	"dinero": true,
	"expense": true, "income": true, "debt": true,
	"purchase": true, "payment": true, "money": true,
}

// Classifier runs the cascade over free text.
type Classifier struct {
	brain brain.Client
}

// NewClassifier creates a cascade classifier on the given reasoning client.
func NewClassifier(b brain.Client) *Classifier {
	return &Classifier{brain: b}
}

// Classify runs both stages with short-circuit evaluation.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	log := logger.FromContext(ctx)

	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < minUtteranceLen {
		return Result{Domain: DomainFinancial, Resolution: ResolutionNoise}
	}

	domain := c.classifyDomain(ctx, trimmed)
	if domain != DomainFinancial {
		return Result{Domain: domain}
	}

	resolution := c.classifyResolution(ctx, trimmed)

	// Hard rule layered after the collaborator call: a bare generic noun
	// never resolves to WRITE.
	if isGenericFinancialNoun(trimmed) && resolution != ResolutionAmbiguous {
		log.Debug().
			Str("text", trimmed).
			Str("model_resolution", string(resolution)).
			Msg("Forcing AMBIGUOUS for bare generic financial noun")
		resolution = ResolutionAmbiguous
	}

	return Result{Domain: DomainFinancial, Resolution: resolution}
}

func (c *Classifier) classifyDomain(ctx context.Context, text string) Domain {
	log := logger.FromContext(ctx)

	raw, err := c.brain.ClassifyDomain(ctx, text)
	if err != nil {
		// Fail open toward the capability that matters most.
		log.Warn().Err(err).Msg("Domain classification failed, defaulting to FINANCIAL")
		return DomainFinancial
	}

	switch Domain(raw) {
	case DomainMeta, DomainSocial, DomainFinancial:
		return Domain(raw)
	default:
		log.Warn().Str("domain", raw).Msg("Unknown domain label, defaulting to FINANCIAL")
		return DomainFinancial
	}
}

func (c *Classifier) classifyResolution(ctx context.Context, text string) Resolution {
	log := logger.FromContext(ctx)

	raw, err := c.brain.ClassifyResolution(ctx, text)
	if err != nil {
		// Prefer attempting extraction over stalling the conversation.
		log.Warn().Err(err).Msg("Resolution classification failed, defaulting to WRITE")
		return ResolutionWrite
	}

	switch Resolution(raw) {
	case ResolutionRead, ResolutionAmbiguous, ResolutionWrite:
		return Resolution(raw)
	default:
		log.Warn().Str("resolution", raw).Msg("Unknown resolution label, defaulting to WRITE")
		return ResolutionWrite
	}
}

// isGenericFinancialNoun reports whether the utterance consists solely of a
// generic financial noun, ignoring case and surrounding punctuation.
func isGenericFinancialNoun(text string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	cleaned = strings.Trim(cleaned, ".,;:!?¡¿ ")
	return genericFinancialNouns[cleaned]
}
