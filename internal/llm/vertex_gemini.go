package llm

import (
	"context"
	"fmt"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// VertexGemini generates text with Gemini on Vertex AI.
type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

// NewVertexGemini creates a client for projectID/location.
func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	if projectID == "" {
		return nil, fmt.Errorf("vertex gemini: project id is required")
	}

	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("vertex gemini: %w", err)
	}

	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &VertexGemini{client: c, modelName: modelName}, nil
}

// Close releases the underlying client.
func (v *VertexGemini) Close() error { return v.client.Close() }

// Generate runs one non-streaming generation and joins the text parts of
// every candidate.
func (v *VertexGemini) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyPrompt
	}

	// Models are cheap handles; one per call keeps system instructions per request.
	m := v.client.GenerativeModel(v.modelName)
	if req.System != "" {
		m.SystemInstruction = &vertexgenai.Content{
			Parts: []vertexgenai.Part{vertexgenai.Text(req.System)},
		}
	}

	resp, err := m.GenerateContent(ctx, vertexgenai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
