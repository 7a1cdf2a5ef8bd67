// Package transcribe turns raw audio into candidate text. The production
// implementation uses Google Cloud Speech-to-Text v2; callers depend on the
// Transcriber interface.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv2"
	"cloud.google.com/go/speech/apiv2/speechpb"
	"google.golang.org/api/option"
)

// DefaultLanguage is the language hint used when the caller passes none.
const DefaultLanguage = "es-MX"

// ErrNoSpeech is returned when the audio produced no usable transcript.
// It is a recoverable condition: the orchestrator answers with a
// "repeat please" message or tries the multimodal fallback, never a 500.
var ErrNoSpeech = errors.New("no speech detected in audio")

// Transcriber converts audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error)
}

// GoogleTranscriber implements Transcriber on Speech-to-Text v2.
type GoogleTranscriber struct {
	client   *speech.Client
	project  string
	location string
}

// NewGoogleTranscriber creates a Speech-to-Text v2 client against the
// regional endpoint for the given location.
func NewGoogleTranscriber(ctx context.Context, project, location string) (*GoogleTranscriber, error) {
	endpoint := fmt.Sprintf("%s-speech.googleapis.com:443", location)
	if location == "global" {
		endpoint = "speech.googleapis.com:443"
	}

	client, err := speech.NewClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &GoogleTranscriber{client: client, project: project, location: location}, nil
}

// Transcribe implements Transcriber. An empty transcript is reported as
// ErrNoSpeech so callers don't have to special-case blank strings.
func (t *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	if languageHint == "" {
		languageHint = DefaultLanguage
	}

	req := &speechpb.RecognizeRequest{
		Recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", t.project, t.location),
		Config: &speechpb.RecognitionConfig{
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			Model:         "latest_long",
			LanguageCodes: []string{languageHint},
			Features: &speechpb.RecognitionFeatures{
				EnableAutomaticPunctuation: true,
			},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: audio},
	}

	resp, err := t.client.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	var b strings.Builder
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(alts[0].GetTranscript())
	}

	transcript := strings.TrimSpace(b.String())
	if transcript == "" {
		return "", ErrNoSpeech
	}
	return transcript, nil
}

// Close releases the underlying client.
func (t *GoogleTranscriber) Close() error {
	return t.client.Close()
}

var _ Transcriber = (*GoogleTranscriber)(nil)
