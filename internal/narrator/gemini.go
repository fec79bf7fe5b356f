package narrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini is a Completer backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini dials the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Gemini, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Complete implements Completer. A model handle is built per call since its
// settings are not safe to mutate concurrently.
func (g *Gemini) Complete(ctx context.Context, c Completion) (string, error) {
	m := g.client.GenerativeModel(g.model)
	if c.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(c.System)}}
	}
	if c.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(c.MaxTokens))
	}
	if c.JSON {
		m.ResponseMIMEType = "application/json"
	}
	resp, err := m.GenerateContent(ctx, genai.Text(c.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return responseText(resp)
}

// Close releases the client.
func (g *Gemini) Close() error { return g.client.Close() }

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyReply
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyReply
	}
	return b.String(), nil
}
