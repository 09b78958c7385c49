package stream

import (
	"context"
	"fmt"
	"io"
)

// readChunkSize is the read granularity for decoder-backed sources.
const readChunkSize = 4096

// Source yields decoded text deltas in stream order. Next returns io.EOF on
// a clean end of stream; any other error aborts the decode.
type Source interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// eventSource reads raw event-stream bytes and feeds them to a Decoder.
type eventSource struct {
	body    io.ReadCloser
	decoder Decoder
	pending []string
	buf     []byte
	done    bool
}

// NewEventSource returns a Source decoding the "data: …\n\n" framed event
// stream read from body. The source owns body and closes it with Close.
func NewEventSource(body io.ReadCloser) Source {
	return &eventSource{
		body: body,
		buf:  make([]byte, readChunkSize),
	}
}

func (s *eventSource) Next(ctx context.Context) (string, error) {
	for len(s.pending) == 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if s.done || s.decoder.Terminated() {
			return "", io.EOF
		}

		n, err := s.body.Read(s.buf)
		if n > 0 {
			deltas, _, derr := s.decoder.Feed(s.buf[:n])
			if derr != nil {
				return "", derr
			}
			s.pending = deltas
		}
		if err == io.EOF {
			s.done = true
			if len(s.pending) == 0 {
				return "", io.EOF
			}
			break
		}
		if err != nil {
			return "", fmt.Errorf("read stream: %w", err)
		}
	}

	delta := s.pending[0]
	s.pending = s.pending[1:]
	return delta, nil
}

func (s *eventSource) Close() error {
	return s.body.Close()
}
