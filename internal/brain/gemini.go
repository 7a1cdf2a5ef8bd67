package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for all reasoning calls.
const DefaultModelName = "gemini-2.5-flash"

// Gemini implements Client on top of the Google GenAI SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed reasoning client. Credentials come from
// the environment (API key or application default credentials). An empty
// model selects DefaultModelName.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &Gemini{client: client, model: model}, nil
}

// generate sends one text-plus-optional-blob request and returns the model's
// raw text. An empty response is reported as ErrBadModelOutput.
func (g *Gemini) generate(ctx context.Context, prompt string, blob *genai.Blob) (string, error) {
	parts := []*genai.Part{{Text: prompt}}
	if blob != nil {
		parts = append(parts, &genai.Part{InlineData: blob})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response from model", ErrBadModelOutput)
	}
	return text, nil
}

// ClassifyDomain implements Client.
func (g *Gemini) ClassifyDomain(ctx context.Context, text string) (string, error) {
	raw, err := g.generate(ctx, macroPrompt+"\n\nUtterance: "+quote(text), nil)
	if err != nil {
		return "", err
	}
	obj, err := decodeJSONObject(raw)
	if err != nil {
		return "", err
	}
	domain, err := getStringField(obj, "domain", true)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(strings.TrimSpace(domain)), nil
}

// ClassifyResolution implements Client.
func (g *Gemini) ClassifyResolution(ctx context.Context, text string) (string, error) {
	raw, err := g.generate(ctx, microPrompt+"\n\nUtterance: "+quote(text), nil)
	if err != nil {
		return "", err
	}
	obj, err := decodeJSONObject(raw)
	if err != nil {
		return "", err
	}
	resolution, err := getStringField(obj, "resolution", true)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(strings.TrimSpace(resolution)), nil
}

// ExtractCandidates implements Client.
func (g *Gemini) ExtractCandidates(ctx context.Context, text string, today time.Time) ([]RawCandidate, error) {
	raw, err := g.generate(ctx, extractionPrompt(today)+"\nUtterance: "+quote(text), nil)
	if err != nil {
		return nil, err
	}
	return decodeCandidates(raw)
}

// AnalyzeQueryIntent implements Client.
func (g *Gemini) AnalyzeQueryIntent(ctx context.Context, text string, today time.Time) (QueryAnalysis, error) {
	raw, err := g.generate(ctx, queryIntentPrompt(today)+"\nQuestion: "+quote(text), nil)
	if err != nil {
		return QueryAnalysis{}, err
	}

	var analysis QueryAnalysis
	if err := unmarshalClean(raw, &analysis); err != nil {
		return QueryAnalysis{}, err
	}
	analysis.Intent = strings.ToUpper(strings.TrimSpace(analysis.Intent))
	return analysis, nil
}

// GenerateChatReply implements Client.
func (g *Gemini) GenerateChatReply(ctx context.Context, text, mode string) (string, error) {
	_ = mode // single chat persona for now
	raw, err := g.generate(ctx, chatPrompt+"\n\nUser: "+quote(text), nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// AnalyzeReceipt implements Client.
func (g *Gemini) AnalyzeReceipt(ctx context.Context, image []byte, mimeType string) (ReceiptData, error) {
	raw, err := g.generate(ctx, receiptPrompt, &genai.Blob{MIMEType: mimeType, Data: image})
	if err != nil {
		return ReceiptData{}, err
	}
	obj, err := decodeJSONObject(raw)
	if err != nil {
		return ReceiptData{}, err
	}

	vendor, err := getStringField(obj, "vendor", true)
	if err != nil {
		return ReceiptData{}, err
	}
	amount, err := getFloat64Field(obj, "total_amount")
	if err != nil {
		return ReceiptData{}, err
	}
	dateStr, err := getStringField(obj, "date", true)
	if err != nil {
		return ReceiptData{}, err
	}
	date, err := parseReceiptDate(dateStr)
	if err != nil {
		return ReceiptData{}, err
	}

	return ReceiptData{Vendor: strings.TrimSpace(vendor), Amount: amount, Date: date}, nil
}

// ExtractFromAudio implements Client.
func (g *Gemini) ExtractFromAudio(ctx context.Context, audio []byte, mimeType string, today time.Time) ([]RawCandidate, error) {
	raw, err := g.generate(ctx, audioExtractionPrompt(today), &genai.Blob{MIMEType: mimeType, Data: audio})
	if err != nil {
		return nil, err
	}
	return decodeCandidates(raw)
}

func unmarshalClean(raw string, v any) error {
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadModelOutput, err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `'`) + `"`
}

var _ Client = (*Gemini)(nil)
