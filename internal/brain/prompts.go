package brain

import (
	"strings"
	"time"

	"github.com/numa-labs/numa/internal/finance"
)

const macroPrompt = `You are the intent router of a voice finance assistant for Mexican Spanish users.
Classify the utterance into exactly one domain:
- META: questions about the assistant itself, its capabilities, settings or commands.
- SOCIAL: greetings, small talk, thanks, anything conversational with no financial content.
- FINANCIAL: mentions money, spending, income, debts, prices, budgets or financial records.

Return STRICT JSON only, no markdown: {"domain": "META" | "SOCIAL" | "FINANCIAL"}`

const microPrompt = `You are the intent router of a voice finance assistant. The utterance is financial.
Classify it into exactly one resolution:
- READ: the user asks about existing records (totals, summaries, "how much have I spent").
- WRITE: the user reports a concrete movement to register (spent, earned, borrowed, lent).
- AMBIGUOUS: financial words without enough detail to register or query anything.

Return STRICT JSON only, no markdown: {"resolution": "READ" | "AMBIGUOUS" | "WRITE"}`

// extractionPrompt asks for a JSON array even when the utterance describes a
// single movement, because one utterance may carry several.
func extractionPrompt(today time.Time) string {
	var b strings.Builder
	b.WriteString("You are a transaction extractor for a voice finance assistant (Mexican Spanish).\n")
	b.WriteString("Extract EVERY financial movement mentioned in the utterance.\n\n")
	b.WriteString("Output STRICT JSON only: a JSON array of objects, one per movement,\n")
	b.WriteString("even if there is only one movement. Each object must have:\n")
	b.WriteString("- \"type\": \"EXPENSE\" | \"INCOME\" | \"DEBT\"\n")
	b.WriteString("- \"amount\": number (0 if no amount was said)\n")
	b.WriteString("- \"concept\": string, short description of what the movement was for\n")
	b.WriteString("- \"merchant\": string or null. ONLY if a business name was explicitly said.\n")
	b.WriteString("  Never copy the concept into merchant. Never guess a merchant.\n")
	b.WriteString("- \"category\": string, one of the categories listed below\n")
	b.WriteString("- \"date\": string \"YYYY-MM-DD\" or null. Assume today is ")
	b.WriteString(today.Format("2006-01-02"))
	b.WriteString(" if the utterance names a relative day.\n\n")
	b.WriteString(taxonomyPrompt())
	b.WriteString("\nReturn ONLY raw JSON. Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"[\" and end with \"]\".\n")
	return b.String()
}

// taxonomyPrompt lists the closed taxonomy the model must choose from.
func taxonomyPrompt() string {
	var b strings.Builder
	b.WriteString("Use ONLY the following categories (exact spelling):\n")
	for _, c := range finance.Categories {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("Use \"" + finance.CategoryOther + "\" only when nothing else fits.\n")
	return b.String()
}

func queryIntentPrompt(today time.Time) string {
	var b strings.Builder
	b.WriteString("You interpret financial questions for a personal finance assistant.\n")
	b.WriteString("Today is " + today.Format("2006-01-02") + ".\n\n")
	b.WriteString("Output STRICT JSON only, no markdown:\n")
	b.WriteString(`{"intent": "QUERY" | "CHAT", "filters": {"category": string or "", "type": "EXPENSE"|"INCOME"|"DEBT" or "", "merchant": string or "", "start_date": "YYYY-MM-DD" or "", "end_date": "YYYY-MM-DD" or ""}}`)
	b.WriteString("\n\nUse QUERY when the question can be answered by summing stored transactions.\n")
	b.WriteString("Use CHAT for general financial talk that needs no records.\n")
	b.WriteString("Resolve relative periods (hoy, ayer, esta semana, este mes) into dates.\n")
	b.WriteString(taxonomyPrompt())
	return b.String()
}

const chatPrompt = `You are Numa, a warm and concise voice finance assistant for Mexican Spanish users.
Answer the user in Mexican Spanish, one or two short sentences, friendly but not silly.
If the user asks what you can do, mention registering expenses by voice and asking about their spending.
Never invent financial data.`

const receiptPrompt = `You are a receipt analyzer. Extract from the attached receipt image:
- "vendor": string, the business name as printed
- "total_amount": number, the final total paid
- "date": string "YYYY-MM-DD HH:MM:SS" (use 00:00:00 if no time is printed)

Return STRICT JSON only with exactly those keys. No markdown, no code fences.`

// audioExtractionPrompt drives the multimodal fallback: same contract as text
// extraction, but the model listens to the raw audio itself.
func audioExtractionPrompt(today time.Time) string {
	return "Listen to the attached audio of a user describing financial movements in Spanish.\n" +
		extractionPrompt(today)
}
