package stream

import (
	"context"
	"io"
	"strings"

	"github.com/richinex/pilotchat/chat"
)

// DefaultChannelSize bounds the delta channel between producer and
// consumer; a full channel suspends the producer (backpressure).
const DefaultChannelSize = 32

// Flusher is implemented by sinks that buffer writes. The pipeline flushes
// after every delta so partial output is visible as it arrives.
type Flusher interface {
	Flush() error
}

// Pipeline joins two units of work over one bounded FIFO channel: a
// producer pulling deltas from a Source while accumulating the response,
// and a consumer writing each delta to Out. Deltas reach Out in exactly
// the order they were decoded.
type Pipeline struct {
	// Out receives every delta as it arrives. Required.
	Out io.Writer
	// Size overrides the channel capacity when positive.
	Size int
}

// Run drives src until it is drained, mirrors every delta to Out, and
// returns the aggregated assistant message. It waits for the consumer to
// finish before returning and propagates the first error from either side.
// Cancelling ctx tears both sides down without leaking the channel.
func (p *Pipeline) Run(ctx context.Context, src Source) (chat.Message, error) {
	size := p.Size
	if size <= 0 {
		size = DefaultChannelSize
	}

	deltas := make(chan string, size)
	sinkErr := make(chan error, 1)

	go func() {
		sinkErr <- p.drain(deltas)
	}()

	var response strings.Builder
	var produceErr error

produce:
	for {
		delta, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			produceErr = err
			break
		}

		response.WriteString(delta)

		select {
		case deltas <- delta:
		case <-ctx.Done():
			produceErr = ctx.Err()
			break produce
		}
	}

	close(deltas)
	werr := <-sinkErr

	if produceErr != nil {
		return chat.Message{}, produceErr
	}
	if werr != nil {
		return chat.Message{}, werr
	}

	return chat.AssistantMessage(response.String()), nil
}

// drain writes deltas to Out until the channel closes. On a write failure
// it keeps receiving so the producer is never left blocked on a send.
func (p *Pipeline) drain(deltas <-chan string) error {
	var failed error
	for delta := range deltas {
		if failed != nil {
			continue
		}
		if _, err := io.WriteString(p.Out, delta); err != nil {
			failed = err
			continue
		}
		if f, ok := p.Out.(Flusher); ok {
			if err := f.Flush(); err != nil {
				failed = err
			}
		}
	}
	return failed
}
