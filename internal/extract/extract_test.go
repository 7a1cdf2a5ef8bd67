package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/numa-labs/numa/internal/brain"
	"github.com/numa-labs/numa/internal/finance"
)

func strPtr(s string) *string { return &s }

func TestGate(t *testing.T) {
	t.Run("valid candidate passes through", func(t *testing.T) {
		got, err := Gate(context.Background(), []brain.RawCandidate{
			{Type: "EXPENSE", Amount: 250, Concept: "cena", Merchant: strPtr("La Trattoria"), Category: "Restaurantes y comida", Date: "2026-08-30"},
		})
		if err != nil {
			t.Fatalf("Gate returned error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d candidates, want 1", len(got))
		}
		c := got[0]
		if c.Type != finance.TypeExpense {
			t.Errorf("Type = %q, want EXPENSE", c.Type)
		}
		if c.Amount != 250 {
			t.Errorf("Amount = %v, want 250", c.Amount)
		}
		if c.Merchant == nil || *c.Merchant != "La Trattoria" {
			t.Errorf("Merchant = %v, want La Trattoria", c.Merchant)
		}
		if c.Category != finance.CategoryFood {
			t.Errorf("Category = %q, want %q", c.Category, finance.CategoryFood)
		}
		if c.Date == nil || c.Date.Format("2006-01-02") != "2026-08-30" {
			t.Errorf("Date = %v, want 2026-08-30", c.Date)
		}
	})

	t.Run("missing amount rejected with specific reason", func(t *testing.T) {
		_, err := Gate(context.Background(), []brain.RawCandidate{
			{Type: "EXPENSE", Amount: 0, Concept: "cena con amigos"},
		})
		var incomplete *IncompleteError
		if !errors.As(err, &incomplete) {
			t.Fatalf("error = %v, want *IncompleteError", err)
		}
		if incomplete.Reason != ReasonMissingAmount {
			t.Errorf("Reason = %q, want %q", incomplete.Reason, ReasonMissingAmount)
		}
	})

	t.Run("generic concept without amount rejected", func(t *testing.T) {
		for _, concept := range []string{"gasto", "Compra", "dinero", "cosas", ""} {
			_, err := Gate(context.Background(), []brain.RawCandidate{
				{Type: "EXPENSE", Amount: 0, Concept: concept},
			})
			var incomplete *IncompleteError
			if !errors.As(err, &incomplete) {
				t.Fatalf("concept %q: error = %v, want *IncompleteError", concept, err)
			}
			if incomplete.Reason != ReasonGenericConcept {
				t.Errorf("concept %q: Reason = %q, want %q", concept, incomplete.Reason, ReasonGenericConcept)
			}
		}
	})

	t.Run("generic concept with amount accepted", func(t *testing.T) {
		got, err := Gate(context.Background(), []brain.RawCandidate{
			{Type: "EXPENSE", Amount: 100, Concept: "compra"},
		})
		if err != nil {
			t.Fatalf("Gate returned error: %v", err)
		}
		if len(got) != 1 || got[0].Amount != 100 {
			t.Fatalf("got %+v, want the candidate accepted", got)
		}
	})

	t.Run("short concept without amount rejected", func(t *testing.T) {
		_, err := Gate(context.Background(), []brain.RawCandidate{
			{Type: "EXPENSE", Amount: 0, Concept: "ab"},
		})
		var incomplete *IncompleteError
		if !errors.As(err, &incomplete) {
			t.Fatalf("error = %v, want *IncompleteError", err)
		}
		if incomplete.Reason != ReasonGenericConcept {
			t.Errorf("Reason = %q, want %q", incomplete.Reason, ReasonGenericConcept)
		}
	})

	t.Run("missing amount outranks generic concept in mixed failures", func(t *testing.T) {
		_, err := Gate(context.Background(), []brain.RawCandidate{
			{Type: "EXPENSE", Amount: 0, Concept: "gasto"},
			{Type: "EXPENSE", Amount: 0, Concept: "cena con amigos"},
		})
		var incomplete *IncompleteError
		if !errors.As(err, &incomplete) {
			t.Fatalf("error = %v, want *IncompleteError", err)
		}
		if incomplete.Reason != ReasonMissingAmount {
			t.Errorf("Reason = %q, want %q", incomplete.Reason, ReasonMissingAmount)
		}
	})

	t.Run("valid candidate survives alongside invalid ones", func(t *testing.T) {
		got, err := Gate(context.Background(), []brain.RawCandidate{
			{Type: "EXPENSE", Amount: 0, Concept: "cena"},
			{Type: "INCOME", Amount: 5000, Concept: "sueldo quincenal", Category: "Salario"},
		})
		if err != nil {
			t.Fatalf("Gate returned error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d candidates, want 1", len(got))
		}
		if got[0].Type != finance.TypeIncome {
			t.Errorf("Type = %q, want INCOME", got[0].Type)
		}
	})

	t.Run("merchant equal to concept dropped", func(t *testing.T) {
		got, err := Gate(context.Background(), []brain.RawCandidate{
			{Type: "EXPENSE", Amount: 80, Concept: "tacos", Merchant: strPtr("Tacos")},
		})
		if err != nil {
			t.Fatalf("Gate returned error: %v", err)
		}
		if got[0].Merchant != nil {
			t.Errorf("Merchant = %q, want nil", *got[0].Merchant)
		}
	})

	t.Run("unknown model category replaced by taxonomy", func(t *testing.T) {
		got, err := Gate(context.Background(), []brain.RawCandidate{
			{Type: "EXPENSE", Amount: 300, Concept: "gasolina", Category: "Combustibles fósiles"},
		})
		if err != nil {
			t.Fatalf("Gate returned error: %v", err)
		}
		if got[0].Category != finance.CategoryTransport {
			t.Errorf("Category = %q, want %q", got[0].Category, finance.CategoryTransport)
		}
	})

	t.Run("empty input yields incomplete error", func(t *testing.T) {
		_, err := Gate(context.Background(), nil)
		var incomplete *IncompleteError
		if !errors.As(err, &incomplete) {
			t.Fatalf("error = %v, want *IncompleteError", err)
		}
	})

	t.Run("unparseable date left nil", func(t *testing.T) {
		got, err := Gate(context.Background(), []brain.RawCandidate{
			{Type: "EXPENSE", Amount: 40, Concept: "café", Date: "ayer"},
		})
		if err != nil {
			t.Fatalf("Gate returned error: %v", err)
		}
		if got[0].Date != nil {
			t.Errorf("Date = %v, want nil", got[0].Date)
		}
	})
}
