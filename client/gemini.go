// Google Gemini Provider implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - Request/response format for Gemini API
// - System instruction handling via config
// - Streaming via official SDK iterator

package client

import (
	"context"
	"fmt"
	"io"
	"iter"

	"google.golang.org/genai"

	"github.com/richinex/pilotchat/chat"
	"github.com/richinex/pilotchat/stream"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client  *genai.Client
	initErr error // Stores client initialization error for deferred reporting
}

// NewGeminiProvider creates a new Gemini provider.
// If client initialization fails, the error is stored and returned on first use.
func NewGeminiProvider(apiKey string) *GeminiProvider {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiProvider{
			initErr: fmt.Errorf("failed to initialize Gemini client: %w", err),
		}
	}

	return &GeminiProvider{client: client}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Stream sends a streaming generate-content request.
func (p *GeminiProvider) Stream(ctx context.Context, req Request) (stream.Source, error) {
	if p.initErr != nil {
		return nil, p.initErr
	}
	if p.client == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}

	contents, systemInstruction := convertToGeminiMessages(req.Messages)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens),
	}

	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}

	// GenerateContentStream returns iter.Seq2[*GenerateContentResponse, error];
	// convert it to a pull iterator so Next can be called on demand.
	seq := p.client.Models.GenerateContentStream(ctx, req.Model, contents, config)
	next, stop := iter.Pull2(seq)
	return &geminiSource{next: next, stop: stop}, nil
}

// geminiSource adapts the SDK pull iterator to the Source interface.
type geminiSource struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

// Next returns the next non-empty text chunk.
func (s *geminiSource) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		resp, err, ok := s.next()
		if !ok {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("stream error: %w", err)
		}
		if text := resp.Text(); text != "" {
			return text, nil
		}
	}
}

func (s *geminiSource) Close() error {
	s.stop()
	return nil
}

// convertToGeminiMessages converts our chat.Message to Gemini format.
// Extracts system message and returns it separately.
func convertToGeminiMessages(messages []chat.Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	var systemInstruction string

	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			systemInstruction = msg.Content
		case chat.RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case chat.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		}
	}

	return contents, systemInstruction
}

// Verify GeminiProvider implements Provider
var (
	_ Provider      = (*GeminiProvider)(nil)
	_ stream.Source = (*geminiSource)(nil)
)
