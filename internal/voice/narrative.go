package voice

import (
	"fmt"
	"strings"

	"github.com/numa-labs/numa/internal/finance"
)

// Narrate composes the Spanish confirmation for freshly created transactions:
// a personalized one-liner for a single movement, grouped counts and totals
// when the utterance carried several.
func Narrate(txs []*finance.Transaction) string {
	switch len(txs) {
	case 0:
		return msgRepeatPlease
	case 1:
		return narrateSingle(txs[0])
	default:
		return narrateGroup(txs)
	}
}

func narrateSingle(tx *finance.Transaction) string {
	amount := formatAmount(tx.Amount)
	switch tx.Type {
	case finance.TypeIncome:
		return fmt.Sprintf("¡Súper! Registré el ingreso de %s por %s.", tx.Concept, amount)
	case finance.TypeDebt:
		return fmt.Sprintf("Anotado. Registré la deuda de %s por %s.", tx.Concept, amount)
	default:
		if tx.Merchant != nil {
			return fmt.Sprintf("Listo, registré tu gasto de %s en %s por %s.", tx.Concept, *tx.Merchant, amount)
		}
		return fmt.Sprintf("Listo, registré tu gasto de %s por %s.", tx.Concept, amount)
	}
}

func narrateGroup(txs []*finance.Transaction) string {
	counts := map[finance.Type]int{}
	totals := map[finance.Type]float64{}
	for _, tx := range txs {
		counts[tx.Type]++
		totals[tx.Type] += tx.Amount
	}

	// Fixed order so the narrative reads the same for the same movements.
	var parts []string
	for _, t := range []finance.Type{finance.TypeExpense, finance.TypeIncome, finance.TypeDebt} {
		if counts[t] == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d %s por %s", counts[t], typeNoun(t, counts[t]), formatAmount(totals[t])))
	}

	return fmt.Sprintf("Listo, registré %s.", joinSpanish(parts))
}

func typeNoun(t finance.Type, n int) string {
	plural := n != 1
	switch t {
	case finance.TypeIncome:
		if plural {
			return "ingresos"
		}
		return "ingreso"
	case finance.TypeDebt:
		if plural {
			return "deudas"
		}
		return "deuda"
	default:
		if plural {
			return "gastos"
		}
		return "gasto"
	}
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("$%d", int64(v))
	}
	return fmt.Sprintf("$%.2f", v)
}

func joinSpanish(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " y " + parts[len(parts)-1]
	}
}
