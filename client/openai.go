// OpenAI Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for OpenAI Chat Completions API
// - Streaming via go-openai library

package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/richinex/pilotchat/chat"
	"github.com/richinex/pilotchat/stream"
)

// OpenAIProvider implements the Provider interface for OpenAI.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Stream sends a streaming chat completion request.
func (p *OpenAIProvider) Stream(ctx context.Context, req Request) (stream.Source, error) {
	sdkReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertToOpenAIMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	}

	s, err := p.client.CreateChatCompletionStream(ctx, sdkReq)
	if err != nil {
		return nil, fmt.Errorf("stream creation failed: %w", err)
	}
	return &openaiSource{stream: s}, nil
}

// Models lists the model ids available with this API key.
func (p *OpenAIProvider) Models(ctx context.Context) ([]string, error) {
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models failed: %w", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// openaiSource adapts the SDK stream to the Source interface.
type openaiSource struct {
	stream *openai.ChatCompletionStream
}

// Next returns the next non-empty content delta. Empty deltas (role
// announcements, finish chunks) are skipped.
func (s *openaiSource) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("stream recv failed: %w", err)
		}
		if len(resp.Choices) > 0 {
			if content := resp.Choices[0].Delta.Content; content != "" {
				return content, nil
			}
		}
	}
}

func (s *openaiSource) Close() error {
	return s.stream.Close()
}

// convertToOpenAIMessages converts our chat.Message to openai.ChatCompletionMessage
func convertToOpenAIMessages(messages []chat.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		result[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	return result
}

// Verify OpenAIProvider implements Provider and ModelLister
var (
	_ Provider      = (*OpenAIProvider)(nil)
	_ ModelLister   = (*OpenAIProvider)(nil)
	_ stream.Source = (*openaiSource)(nil)
)
