package voice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/numa-labs/numa/internal/brain"
	"github.com/numa-labs/numa/internal/finance"
	"github.com/numa-labs/numa/internal/logger"
)

// answerQuery handles the READ resolution: the collaborator interprets the
// question into filters, persisted transactions are summed over verified
// states, and the answer is phrased in Spanish. A CHAT intent from the
// analyzer routes back to conversational generation.
func (o *Orchestrator) answerQuery(ctx context.Context, userID, text string) (*Reply, error) {
	log := logger.FromContext(ctx)

	analysis, err := o.brain.AnalyzeQueryIntent(ctx, text, o.now())
	if err != nil {
		log.Warn().Err(err).Msg("Query analysis failed, answering conversationally")
		return o.chat(ctx, text)
	}
	if analysis.Intent != "QUERY" {
		return o.chat(ctx, text)
	}

	filter := buildFilter(analysis.Filters)
	summary, err := o.finance.Summarize(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("summarizing transactions: %w", err)
	}

	// Pending provisional balance is reported alongside so the user knows
	// the verified figure is not the whole picture.
	pendingFilter := filter
	pendingFilter.Statuses = []finance.Status{finance.StatusProvisional}
	pending, err := o.finance.Summarize(ctx, userID, pendingFilter)
	if err != nil {
		return nil, fmt.Errorf("summarizing pending transactions: %w", err)
	}

	return chatReply(phraseSummary(analysis.Filters, summary, pending)), nil
}

func buildFilter(f brain.QueryFilters) finance.Filter {
	filter := finance.Filter{
		Statuses: []finance.Status{finance.StatusVerified, finance.StatusVerifiedManual},
		Category: f.Category,
		Merchant: f.Merchant,
	}
	if t := strings.ToUpper(strings.TrimSpace(f.Type)); t != "" {
		filter.Type = finance.ParseType(t)
	}
	if d, err := time.Parse("2006-01-02", f.StartDate); err == nil {
		filter.StartDate = &d
	}
	if d, err := time.Parse("2006-01-02", f.EndDate); err == nil {
		filter.EndDate = &d
	}
	return filter
}

func phraseSummary(f brain.QueryFilters, verified, pending finance.Summary) string {
	var scope string
	if f.Category != "" {
		scope = fmt.Sprintf(" en %s", f.Category)
	} else if f.Merchant != "" {
		scope = fmt.Sprintf(" en %s", f.Merchant)
	}

	if verified.Count == 0 && pending.Count == 0 {
		return fmt.Sprintf("No encontré %s%s en ese periodo.", summaryNoun(f.Type, 0), scope)
	}

	msg := fmt.Sprintf("Llevas %s en %d %s%s.",
		formatAmount(verified.Total), verified.Count, summaryNoun(f.Type, verified.Count), scope)
	if pending.Count > 0 {
		noun := "pendientes"
		if pending.Count == 1 {
			noun = "pendiente"
		}
		msg += fmt.Sprintf(" Además tienes %s en %d %s por verificar.", formatAmount(pending.Total), pending.Count, noun)
	}
	return msg
}

// summaryNoun names what was counted, number-agreed. An empty type means the
// question did not narrow to one movement kind.
func summaryNoun(rawType string, n int) string {
	if strings.TrimSpace(rawType) == "" {
		if n == 1 {
			return "movimiento"
		}
		return "movimientos"
	}
	return typeNoun(finance.ParseType(rawType), n)
}
