// Package client provides the transport boundary to chat-completion services.
//
// Each provider implementation hides:
// - API endpoint and authentication
// - Request format conversion
// - How its response stream is adapted to a delta source

package client

import (
	"context"

	"github.com/richinex/pilotchat/chat"
	"github.com/richinex/pilotchat/stream"
)

// Request describes one chat-completion request.
type Request struct {
	Model       string
	Messages    []chat.Message
	Temperature float32
	MaxTokens   int
}

// Provider sends a request and exposes the response as a delta source.
// Implementations hide provider-specific details while the pipeline stays
// provider-agnostic.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Stream sends the request and returns the delta source for the
	// response. The caller owns the source and must Close it.
	Stream(ctx context.Context, req Request) (stream.Source, error)
}

// ModelLister is implemented by providers that can enumerate available
// model ids.
type ModelLister interface {
	Models(ctx context.Context) ([]string, error)
}
