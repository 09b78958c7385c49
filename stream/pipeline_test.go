package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/richinex/pilotchat/chat"
)

// sliceSource yields a fixed list of deltas, then an optional error or EOF.
type sliceSource struct {
	deltas []string
	err    error
	closed bool
}

func (s *sliceSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.deltas) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	d := s.deltas[0]
	s.deltas = s.deltas[1:]
	return d, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// flushCountingWriter records writes and flushes.
type flushCountingWriter struct {
	bytes.Buffer
	flushes int
}

func (w *flushCountingWriter) Flush() error {
	w.flushes++
	return nil
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("sink closed")
}

func TestPipelineAggregatesAndMirrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &sliceSource{deltas: []string{"Hello", ", ", "world"}}
	var out flushCountingWriter
	p := &Pipeline{Out: &out}

	msg, err := p.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if msg.Role != chat.RoleAssistant {
		t.Errorf("expected assistant role, got %q", msg.Role)
	}
	if msg.Content != "Hello, world" {
		t.Errorf("expected aggregated content, got %q", msg.Content)
	}
	if out.String() != "Hello, world" {
		t.Errorf("expected mirrored output, got %q", out.String())
	}
	if out.flushes != 3 {
		t.Errorf("expected a flush per delta, got %d", out.flushes)
	}
}

func TestPipelinePreservesOrderUnderBackpressure(t *testing.T) {
	defer goleak.VerifyNone(t)

	deltas := make([]string, 500)
	for i := range deltas {
		deltas[i] = strings.Repeat("x", i%7) + "|"
	}
	src := &sliceSource{deltas: append([]string(nil), deltas...)}

	var out bytes.Buffer
	p := &Pipeline{Out: &out, Size: 2}

	msg, err := p.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := strings.Join(deltas, "")
	if msg.Content != want {
		t.Error("aggregated content does not match input order")
	}
	if out.String() != want {
		t.Error("sink output does not match input order")
	}
}

func TestPipelineProducerErrorPropagates(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &sliceSource{
		deltas: []string{"partial"},
		err:    &ProviderError{Message: "X"},
	}
	var out bytes.Buffer
	p := &Pipeline{Out: &out}

	_, err := p.Run(context.Background(), src)
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Message != "X" {
		t.Fatalf("expected ProviderError \"X\", got %v", err)
	}
	// Deltas decoded before the failure were still written.
	if out.String() != "partial" {
		t.Errorf("expected partial output, got %q", out.String())
	}
}

func TestPipelineSinkErrorPropagates(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &sliceSource{deltas: []string{"a", "b", "c"}}
	p := &Pipeline{Out: failingWriter{}}

	_, err := p.Run(context.Background(), src)
	if err == nil || !strings.Contains(err.Error(), "sink closed") {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestPipelineCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &sliceSource{deltas: []string{"never"}}
	var out bytes.Buffer
	p := &Pipeline{Out: &out}

	_, err := p.Run(ctx, src)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEventSourceThroughPipeline(t *testing.T) {
	defer goleak.VerifyNone(t)

	raw := event(" the") + event(" most") + "data: [DONE]\n\n"
	src := NewEventSource(io.NopCloser(strings.NewReader(raw)))
	defer src.Close()

	var out bytes.Buffer
	p := &Pipeline{Out: &out}

	msg, err := p.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if msg.Content != " the most" {
		t.Errorf("expected \" the most\", got %q", msg.Content)
	}
}

func TestEventSourceProviderError(t *testing.T) {
	raw := `data: {"error":{"message":"quota exceeded"}}` + "\n\n"
	src := NewEventSource(io.NopCloser(strings.NewReader(raw)))
	defer src.Close()

	_, err := src.Next(context.Background())
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Message != "quota exceeded" {
		t.Errorf("expected provider message, got %q", perr.Message)
	}
}

func TestEventSourceEOFWithoutSentinel(t *testing.T) {
	raw := event("tail")
	src := NewEventSource(io.NopCloser(strings.NewReader(raw)))
	defer src.Close()

	ctx := context.Background()
	d, err := src.Next(ctx)
	if err != nil || d != "tail" {
		t.Fatalf("expected \"tail\", got %q %v", d, err)
	}
	if _, err := src.Next(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}
