// Anthropic Provider implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - Streaming via official SDK

package client

import (
	"context"
	"fmt"
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/richinex/pilotchat/chat"
	"github.com/richinex/pilotchat/stream"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Stream sends a streaming messages request.
func (p *AnthropicProvider) Stream(ctx context.Context, req Request) (stream.Source, error) {
	anthropicMessages, systemPrompt := convertToAnthropicMessages(req.Messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Messages:    anthropicMessages,
		Temperature: anthropic.Float(float64(req.Temperature)),
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	return &anthropicSource{stream: p.client.Messages.NewStreaming(ctx, params)}, nil
}

// anthropicSource adapts the SDK event stream to the Source interface.
type anthropicSource struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

// Next returns the next text delta. Non-text events (message start,
// content block boundaries, usage deltas) are skipped.
func (s *anthropicSource) Next(ctx context.Context) (string, error) {
	for s.stream.Next() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		event := s.stream.Current()
		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if deltaVariant.Text != "" {
					return deltaVariant.Text, nil
				}
			}
		}
	}
	if err := s.stream.Err(); err != nil {
		return "", fmt.Errorf("stream error: %w", err)
	}
	return "", io.EOF
}

func (s *anthropicSource) Close() error {
	return s.stream.Close()
}

// convertToAnthropicMessages converts our chat.Message to Anthropic format.
// Extracts system message and returns it separately.
func convertToAnthropicMessages(messages []chat.Message) ([]anthropic.MessageParam, string) {
	var anthropicMessages []anthropic.MessageParam
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			systemPrompt = msg.Content
		case chat.RoleUser:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		case chat.RoleAssistant:
			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	return anthropicMessages, systemPrompt
}

// Verify AnthropicProvider implements Provider
var (
	_ Provider      = (*AnthropicProvider)(nil)
	_ stream.Source = (*anthropicSource)(nil)
)
