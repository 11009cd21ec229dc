// Package transcribe turns recorded audio into payload text using an
// external speech to text model.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"stego-server/internal/logging"
	"stego-server/internal/metrics"
)

// ErrTranscriptionFailed wraps every failure to obtain a transcript.
var ErrTranscriptionFailed = errors.New("transcription failed")

// ErrNotConfigured is returned by a nil or key-less client.
var ErrNotConfigured = fmt.Errorf("%w: speech to text is not configured", ErrTranscriptionFailed)

// Prompt is sent ahead of the audio.
const Prompt = "Transcribe the following audio:"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-pro"

// requestTimeout bounds a single generateContent call.
const requestTimeout = 2 * time.Minute

var log = logging.For("transcribe")

// Transcriber converts audio bytes of the given MIME type to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Gemini sends inline audio to a Gemini model through the genai client.
type Gemini struct {
	client *genai.Client
	model  string
}

// Option configures the underlying genai client.
type Option func(*genai.ClientConfig)

// WithEndpoint overrides the API base URL.
func WithEndpoint(endpoint string) Option {
	return func(cc *genai.ClientConfig) { cc.HTTPOptions.BaseURL = endpoint }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cc *genai.ClientConfig) { cc.HTTPClient = c }
}

// NewGemini returns a client for model. It returns nil and no error when
// apiKey is empty.
func NewGemini(ctx context.Context, apiKey, model string, opts ...Option) (*Gemini, error) {
	if apiKey == "" {
		return nil, nil
	}
	if model == "" {
		model = DefaultModel
	}

	timeout := requestTimeout
	cc := &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{Timeout: &timeout},
	}
	for _, opt := range opts {
		opt(cc)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Transcribe sends audio to the model and returns the trimmed transcript.
func (g *Gemini) Transcribe(ctx context.Context, audio []byte, mimeType string) (text string, err error) {
	if g == nil {
		metrics.TranscriptionsTotal.WithLabelValues("unavailable").Inc()
		return "", ErrNotConfigured
	}

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.TranscriptionsTotal.WithLabelValues(status).Inc()
		metrics.TranscriptionDuration.Observe(time.Since(start).Seconds())
	}()

	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio", ErrTranscriptionFailed)
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(Prompt),
		genai.NewPartFromBytes(audio, mimeType),
	}, genai.RoleUser)}

	log.Debug("Sending %d bytes of %s audio to %s", len(audio), mimeType, g.model)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: HTTP %d: %s", ErrTranscriptionFailed, apiErr.Code, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}

	text = strings.TrimSpace(firstCandidateText(resp))
	if text == "" {
		return "", fmt.Errorf("%w: empty transcript", ErrTranscriptionFailed)
	}

	log.Info("Transcribed %d bytes of audio to %d characters in %v", len(audio), len(text), time.Since(start))
	return text, nil
}

// firstCandidateText joins the text parts of the first candidate that has any.
func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p != nil && !p.Thought {
				sb.WriteString(p.Text)
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String()
}
