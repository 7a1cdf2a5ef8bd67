package voice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/numa-labs/numa/internal/brain"
	"github.com/numa-labs/numa/internal/finance"
	"github.com/numa-labs/numa/internal/store/memory"
)

// MockTranscriber implements transcribe.Transcriber.
type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audio []byte, languageHint string) (string, error)
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	return m.TranscribeFunc(ctx, audio, languageHint)
}

// MockBrain implements brain.Client with overridable functions. Methods with
// nil functions fail loudly so tests only stub what they expect to be called.
type MockBrain struct {
	ClassifyDomainFunc     func(ctx context.Context, text string) (string, error)
	ClassifyResolutionFunc func(ctx context.Context, text string) (string, error)
	ExtractCandidatesFunc  func(ctx context.Context, text string, today time.Time) ([]brain.RawCandidate, error)
	AnalyzeQueryIntentFunc func(ctx context.Context, text string, today time.Time) (brain.QueryAnalysis, error)
	GenerateChatReplyFunc  func(ctx context.Context, text, mode string) (string, error)
	ExtractFromAudioFunc   func(ctx context.Context, audio []byte, mimeType string, today time.Time) ([]brain.RawCandidate, error)
}

func (m *MockBrain) ClassifyDomain(ctx context.Context, text string) (string, error) {
	if m.ClassifyDomainFunc == nil {
		return "", errors.New("unexpected ClassifyDomain call")
	}
	return m.ClassifyDomainFunc(ctx, text)
}

func (m *MockBrain) ClassifyResolution(ctx context.Context, text string) (string, error) {
	if m.ClassifyResolutionFunc == nil {
		return "", errors.New("unexpected ClassifyResolution call")
	}
	return m.ClassifyResolutionFunc(ctx, text)
}

func (m *MockBrain) ExtractCandidates(ctx context.Context, text string, today time.Time) ([]brain.RawCandidate, error) {
	if m.ExtractCandidatesFunc == nil {
		return nil, errors.New("unexpected ExtractCandidates call")
	}
	return m.ExtractCandidatesFunc(ctx, text, today)
}

func (m *MockBrain) AnalyzeQueryIntent(ctx context.Context, text string, today time.Time) (brain.QueryAnalysis, error) {
	if m.AnalyzeQueryIntentFunc == nil {
		return brain.QueryAnalysis{}, errors.New("unexpected AnalyzeQueryIntent call")
	}
	return m.AnalyzeQueryIntentFunc(ctx, text, today)
}

func (m *MockBrain) GenerateChatReply(ctx context.Context, text, mode string) (string, error) {
	if m.GenerateChatReplyFunc == nil {
		return "", errors.New("unexpected GenerateChatReply call")
	}
	return m.GenerateChatReplyFunc(ctx, text, mode)
}

func (m *MockBrain) AnalyzeReceipt(ctx context.Context, image []byte, mimeType string) (brain.ReceiptData, error) {
	return brain.ReceiptData{}, errors.New("unexpected AnalyzeReceipt call")
}

func (m *MockBrain) ExtractFromAudio(ctx context.Context, audio []byte, mimeType string, today time.Time) ([]brain.RawCandidate, error) {
	if m.ExtractFromAudioFunc == nil {
		return nil, errors.New("unexpected ExtractFromAudio call")
	}
	return m.ExtractFromAudioFunc(ctx, audio, mimeType, today)
}

func classifyAs(domain, resolution string) *MockBrain {
	return &MockBrain{
		ClassifyDomainFunc: func(ctx context.Context, text string) (string, error) {
			return domain, nil
		},
		ClassifyResolutionFunc: func(ctx context.Context, text string) (string, error) {
			return resolution, nil
		},
	}
}

func okTranscriber(text string) *MockTranscriber {
	return &MockTranscriber{
		TranscribeFunc: func(ctx context.Context, audio []byte, languageHint string) (string, error) {
			return text, nil
		},
	}
}

func strPtr(s string) *string { return &s }

func TestHandleUtterance_SingleExpense(t *testing.T) {
	store := memory.NewStore()
	mock := classifyAs("FINANCIAL", "WRITE")
	mock.ExtractCandidatesFunc = func(ctx context.Context, text string, today time.Time) ([]brain.RawCandidate, error) {
		return []brain.RawCandidate{
			{Type: "EXPENSE", Amount: 120, Concept: "cena"},
		}, nil
	}

	o := NewOrchestrator(okTranscriber("gasté 120 pesos en la cena"), mock, finance.NewService(store))
	reply, err := o.HandleUtterance(context.Background(), "user-1", []byte("audio"), "audio/ogg")
	if err != nil {
		t.Fatalf("HandleUtterance returned error: %v", err)
	}

	if reply.Type != ReplyTransaction {
		t.Fatalf("Type = %q, want %q", reply.Type, ReplyTransaction)
	}
	if reply.Transcription != "gasté 120 pesos en la cena" {
		t.Errorf("Transcription = %q", reply.Transcription)
	}
	if len(reply.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(reply.Transactions))
	}

	tx := reply.Transactions[0]
	if tx.Type != finance.TypeExpense {
		t.Errorf("Type = %q, want EXPENSE", tx.Type)
	}
	if tx.Amount != 120 {
		t.Errorf("Amount = %v, want 120", tx.Amount)
	}
	if !strings.Contains(tx.Concept, "cena") {
		t.Errorf("Concept = %q, want it to mention cena", tx.Concept)
	}
	if tx.Merchant != nil {
		t.Errorf("Merchant = %v, want nil", tx.Merchant)
	}
	if tx.Status != finance.StatusProvisional {
		t.Errorf("Status = %q, want provisional", tx.Status)
	}

	stored, err := store.GetTransaction(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("stored transaction not found: %v", err)
	}
	if stored.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", stored.UserID)
	}
}

func TestHandleUtterance_AmbiguousAsksDetail(t *testing.T) {
	store := memory.NewStore()
	o := NewOrchestrator(okTranscriber("gasto"), classifyAs("FINANCIAL", "WRITE"), finance.NewService(store))

	reply, err := o.HandleUtterance(context.Background(), "user-1", []byte("audio"), "audio/ogg")
	if err != nil {
		t.Fatalf("HandleUtterance returned error: %v", err)
	}
	if reply.Type != ReplyChat {
		t.Fatalf("Type = %q, want chat", reply.Type)
	}
	if reply.Message != msgAskGenericDetail {
		t.Errorf("Message = %q, want generic clarification", reply.Message)
	}

	txs, _ := store.ListTransactions(context.Background(), "user-1", finance.Filter{})
	if len(txs) != 0 {
		t.Errorf("created %d transactions, want 0", len(txs))
	}
}

func TestHandleUtterance_AmbiguousKeywordSniffing(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"me llegó un ingreso", msgAskIncomeDetail},
		{"tengo una deuda", msgAskDebtDetail},
		{"hice una compra", msgAskGenericDetail},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			o := NewOrchestrator(okTranscriber(tt.text), classifyAs("FINANCIAL", "AMBIGUOUS"), finance.NewService(memory.NewStore()))
			reply, err := o.HandleUtterance(context.Background(), "user-1", []byte("audio"), "audio/ogg")
			if err != nil {
				t.Fatalf("HandleUtterance returned error: %v", err)
			}
			if reply.Message != tt.want {
				t.Errorf("Message = %q, want %q", reply.Message, tt.want)
			}
		})
	}
}

func TestHandleUtterance_TwoMovements(t *testing.T) {
	store := memory.NewStore()
	mock := classifyAs("FINANCIAL", "WRITE")
	mock.ExtractCandidatesFunc = func(ctx context.Context, text string, today time.Time) ([]brain.RawCandidate, error) {
		return []brain.RawCandidate{
			{Type: "EXPENSE", Amount: 50, Concept: "café"},
			{Type: "INCOME", Amount: 500, Concept: "sueldo", Category: "Salario"},
		}, nil
	}

	o := NewOrchestrator(okTranscriber("gasté 50 en café y me pagaron 500 de sueldo"), mock, finance.NewService(store))
	reply, err := o.HandleUtterance(context.Background(), "user-1", []byte("audio"), "audio/ogg")
	if err != nil {
		t.Fatalf("HandleUtterance returned error: %v", err)
	}

	if len(reply.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(reply.Transactions))
	}
	types := map[finance.Type]bool{}
	for _, tx := range reply.Transactions {
		types[tx.Type] = true
		if tx.Status != finance.StatusProvisional {
			t.Errorf("Status = %q, want provisional", tx.Status)
		}
	}
	if !types[finance.TypeExpense] || !types[finance.TypeIncome] {
		t.Errorf("types = %v, want one EXPENSE and one INCOME", types)
	}

	for _, fragment := range []string{"1 gasto", "$50", "1 ingreso", "$500"} {
		if !strings.Contains(reply.Message, fragment) {
			t.Errorf("narrative %q missing %q", reply.Message, fragment)
		}
	}
}

func TestHandleUtterance_InvalidCandidatesCreateNothing(t *testing.T) {
	store := memory.NewStore()
	mock := classifyAs("FINANCIAL", "WRITE")
	mock.ExtractCandidatesFunc = func(ctx context.Context, text string, today time.Time) ([]brain.RawCandidate, error) {
		return []brain.RawCandidate{
			{Type: "EXPENSE", Amount: 0, Concept: "cena con amigos"},
		}, nil
	}

	o := NewOrchestrator(okTranscriber("gasté en una cena"), mock, finance.NewService(store))
	reply, err := o.HandleUtterance(context.Background(), "user-1", []byte("audio"), "audio/ogg")
	if err != nil {
		t.Fatalf("HandleUtterance returned error: %v", err)
	}

	if reply.Type != ReplyChat {
		t.Fatalf("Type = %q, want chat", reply.Type)
	}
	if reply.Message != msgAskAmount {
		t.Errorf("Message = %q, want amount clarification", reply.Message)
	}
	txs, _ := store.ListTransactions(context.Background(), "user-1", finance.Filter{})
	if len(txs) != 0 {
		t.Errorf("created %d transactions, want 0", len(txs))
	}
}

func TestHandleUtterance_NoiseShortCircuits(t *testing.T) {
	o := NewOrchestrator(okTranscriber("e"), &MockBrain{}, finance.NewService(memory.NewStore()))
	reply, err := o.HandleUtterance(context.Background(), "user-1", []byte("audio"), "audio/ogg")
	if err != nil {
		t.Fatalf("HandleUtterance returned error: %v", err)
	}
	if reply.Type != ReplyChat || reply.Message != msgRepeatPlease {
		t.Errorf("reply = %+v, want repeat-please chat", reply)
	}
}

func TestHandleUtterance_SocialDelegatesToChat(t *testing.T) {
	mock := classifyAs("SOCIAL", "")
	mock.GenerateChatReplyFunc = func(ctx context.Context, text, mode string) (string, error) {
		return "¡Hola! ¿En qué te ayudo?", nil
	}

	o := NewOrchestrator(okTranscriber("hola buenos días"), mock, finance.NewService(memory.NewStore()))
	reply, err := o.HandleUtterance(context.Background(), "user-1", []byte("audio"), "audio/ogg")
	if err != nil {
		t.Fatalf("HandleUtterance returned error: %v", err)
	}
	if reply.Type != ReplyChat || reply.Message != "¡Hola! ¿En qué te ayudo?" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestHandleUtterance_AudioFallback(t *testing.T) {
	store := memory.NewStore()
	failing := &MockTranscriber{
		TranscribeFunc: func(ctx context.Context, audio []byte, languageHint string) (string, error) {
			return "", errors.New("recognizer unavailable")
		},
	}
	mock := &MockBrain{
		ExtractFromAudioFunc: func(ctx context.Context, audio []byte, mimeType string, today time.Time) ([]brain.RawCandidate, error) {
			return []brain.RawCandidate{
				{Type: "EXPENSE", Amount: 80, Concept: "tacos"},
			}, nil
		},
	}

	o := NewOrchestrator(failing, mock, finance.NewService(store))
	reply, err := o.HandleUtterance(context.Background(), "user-1", []byte("audio"), "audio/ogg")
	if err != nil {
		t.Fatalf("HandleUtterance returned error: %v", err)
	}
	if reply.Type != ReplyTransaction || len(reply.Transactions) != 1 {
		t.Fatalf("reply = %+v, want one transaction via fallback", reply)
	}
}

func TestHandleUtterance_FallbackAlsoFails(t *testing.T) {
	failing := &MockTranscriber{
		TranscribeFunc: func(ctx context.Context, audio []byte, languageHint string) (string, error) {
			return "", errors.New("recognizer unavailable")
		},
	}
	mock := &MockBrain{
		ExtractFromAudioFunc: func(ctx context.Context, audio []byte, mimeType string, today time.Time) ([]brain.RawCandidate, error) {
			return nil, errors.New("model unavailable")
		},
	}

	o := NewOrchestrator(failing, mock, finance.NewService(memory.NewStore()))
	_, err := o.HandleUtterance(context.Background(), "user-1", []byte("audio"), "audio/ogg")
	if !errors.Is(err, ErrUnintelligibleAudio) {
		t.Fatalf("error = %v, want ErrUnintelligibleAudio", err)
	}
}

func TestAnswerQuery(t *testing.T) {
	store := memory.NewStore()
	svc := finance.NewService(store)
	ctx := context.Background()

	created, err := svc.CreateProvisional(ctx, finance.CreateParams{
		UserID: "user-1", Type: finance.TypeExpense, Amount: 300,
		Concept: "super", Category: strPtr("Supermercado"),
	})
	if err != nil {
		t.Fatalf("CreateProvisional: %v", err)
	}
	if _, err := svc.VerifyManually(ctx, created.ID, nil); err != nil {
		t.Fatalf("VerifyManually: %v", err)
	}
	if _, err := svc.CreateProvisional(ctx, finance.CreateParams{
		UserID: "user-1", Type: finance.TypeExpense, Amount: 120,
		Concept: "cena", Category: strPtr("Restaurantes y comida"),
	}); err != nil {
		t.Fatalf("CreateProvisional: %v", err)
	}

	mock := classifyAs("FINANCIAL", "READ")
	mock.AnalyzeQueryIntentFunc = func(ctx context.Context, text string, today time.Time) (brain.QueryAnalysis, error) {
		return brain.QueryAnalysis{
			Intent:  "QUERY",
			Filters: brain.QueryFilters{Type: "EXPENSE"},
		}, nil
	}

	o := NewOrchestrator(okTranscriber("cuánto llevo gastado"), mock, svc)
	reply, err := o.HandleUtterance(ctx, "user-1", []byte("audio"), "audio/ogg")
	if err != nil {
		t.Fatalf("HandleUtterance returned error: %v", err)
	}

	if reply.Type != ReplyChat {
		t.Fatalf("Type = %q, want chat", reply.Type)
	}
	for _, fragment := range []string{"$300", "en 1 gasto.", "$120", "en 1 pendiente por verificar"} {
		if !strings.Contains(reply.Message, fragment) {
			t.Errorf("answer %q missing %q", reply.Message, fragment)
		}
	}
}

func TestPhraseSummary(t *testing.T) {
	tests := []struct {
		name     string
		filters  brain.QueryFilters
		verified finance.Summary
		pending  finance.Summary
		want     string
	}{
		{
			name:     "singular expense",
			filters:  brain.QueryFilters{Type: "EXPENSE"},
			verified: finance.Summary{Total: 300, Count: 1},
			want:     "Llevas $300 en 1 gasto.",
		},
		{
			name:     "plural expenses with pending",
			filters:  brain.QueryFilters{Type: "EXPENSE"},
			verified: finance.Summary{Total: 450, Count: 3},
			pending:  finance.Summary{Total: 120, Count: 2},
			want:     "Llevas $450 en 3 gastos. Además tienes $120 en 2 pendientes por verificar.",
		},
		{
			name:     "singular pending",
			filters:  brain.QueryFilters{Type: "INCOME"},
			verified: finance.Summary{Total: 500, Count: 2},
			pending:  finance.Summary{Total: 80, Count: 1},
			want:     "Llevas $500 en 2 ingresos. Además tienes $80 en 1 pendiente por verificar.",
		},
		{
			name:     "untyped single movement",
			verified: finance.Summary{Total: 45, Count: 1},
			want:     "Llevas $45 en 1 movimiento.",
		},
		{
			name:    "nothing found",
			filters: brain.QueryFilters{Type: "DEBT"},
			want:    "No encontré deudas en ese periodo.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := phraseSummary(tt.filters, tt.verified, tt.pending); got != tt.want {
				t.Errorf("phraseSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
