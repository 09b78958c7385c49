// Package session drives one chat turn end to end.
//
// Information Hiding:
// - Message list ownership and ordering
// - First-turn prompt seeding
// - How tracked-file payloads are attached to a turn
package session

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/richinex/pilotchat/chat"
	"github.com/richinex/pilotchat/client"
	"github.com/richinex/pilotchat/config"
	"github.com/richinex/pilotchat/stream"
	"github.com/richinex/pilotchat/tracker"
)

// Prompt describes one turn's input.
type Prompt struct {
	// Model overrides the configured model when non-empty.
	Model string
	// Text is the user's prompt for this turn.
	Text string
	// Stdin is piped input, sent as its own user message before Text.
	Stdin string
	// Kind selects the behavior prompt seeded on the first turn.
	Kind chat.Kind
	// Files are path[:start-end] arguments to reference this turn.
	Files []string
}

// Session owns the ordered message list and the file tracker, and drives
// turns against a provider. The message slice is owned exclusively by the
// session; callers get read-only views.
type Session struct {
	provider client.Provider
	tracker  *tracker.Tracker
	settings config.Settings
	out      io.Writer

	messages []chat.Message
}

// New creates a session writing streamed output to out.
func New(provider client.Provider, settings config.Settings, out io.Writer) *Session {
	return &Session{
		provider: provider,
		tracker:  tracker.New(tracker.OSReader{}),
		settings: settings,
		out:      out,
	}
}

// Send runs one turn: builds the request messages, streams the response to
// the session writer, and appends the assistant reply to the history.
func (s *Session) Send(ctx context.Context, prompt Prompt) error {
	if len(s.messages) == 0 {
		s.messages = append(s.messages,
			chat.UserMessage(chat.GeneralPrompt()),
			chat.UserMessage(prompt.Kind.Prompt()),
		)
	}

	if prompt.Stdin != "" {
		s.messages = append(s.messages, chat.UserMessage(prompt.Stdin))
	}
	if prompt.Text != "" {
		s.messages = append(s.messages, chat.UserMessage(prompt.Text))
	}

	for _, file := range prompt.Files {
		payloads, err := s.tracker.Reference(file)
		if err != nil {
			return fmt.Errorf("reference %s: %w", file, err)
		}
		s.messages = append(s.messages, payloads...)
	}

	model := prompt.Model
	if model == "" {
		model = s.settings.Model
	}

	zap.L().Debug("sending turn",
		zap.String("provider", s.provider.Name()),
		zap.String("model", model),
		zap.Int("messages", len(s.messages)))

	src, err := s.provider.Stream(ctx, client.Request{
		Model:       model,
		Messages:    s.messages,
		Temperature: s.settings.Temperature,
		MaxTokens:   s.settings.MaxTokens,
	})
	if err != nil {
		return err
	}
	defer src.Close()

	pipeline := stream.Pipeline{Out: s.out}
	reply, err := pipeline.Run(ctx, src)
	if err != nil {
		return err
	}

	s.messages = append(s.messages, reply)
	return nil
}

// SetOutput redirects streamed output, e.g. to a network connection.
func (s *Session) SetOutput(out io.Writer) {
	s.out = out
}

// Messages returns the session history.
func (s *Session) Messages() []chat.Message {
	return s.messages
}

// Baselines returns the tracked-file baselines for persistence.
func (s *Session) Baselines() []tracker.TrackedFile {
	return s.tracker.Baselines()
}

// Restore replaces the history and tracked baselines with persisted state.
func (s *Session) Restore(messages []chat.Message, baselines []tracker.TrackedFile) {
	s.messages = append([]chat.Message(nil), messages...)
	s.tracker.Restore(baselines)
}
