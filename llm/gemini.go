package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/smhanov/bughound"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider generates completions through the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed provider. The model defaults to
// gemini-2.0-flash when empty.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Generate implements bughound.LLMProvider. Messages with RoleSystem become
// the system instruction; the remaining messages are concatenated into the
// user turn.
func (p *GeminiProvider) Generate(ctx context.Context, messages []bughound.Message) (string, error) {
	var system string
	var user []string
	for _, m := range messages {
		if m.Role == bughound.RoleSystem {
			system = m.Content
			continue
		}
		user = append(user, m.Content)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		genai.Text(strings.Join(user, "\n\n")), config)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", bughound.MarkTransient(fmt.Errorf("gemini returned an empty completion"))
	}
	return text, nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 408, 429, 500, 502, 503, 504:
			return bughound.MarkTransient(fmt.Errorf("gemini request failed: %w", err))
		}
		return fmt.Errorf("gemini request failed: %w", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return bughound.MarkTransient(fmt.Errorf("gemini request failed: %w", err))
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
