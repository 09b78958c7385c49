// Package stream decodes chat-completion event streams and mirrors the
// decoded deltas to an output sink while aggregating the final message.
//
// The decoder is an incremental parser over a growing byte buffer: events
// are framed as "data: <payload>\n\n", and the transport may split or
// coalesce frames arbitrarily. Decoding the same total bytes yields the
// same deltas regardless of chunking.
package stream

import (
	"bytes"
	"encoding/json"
	"errors"
)

const (
	eventPrefix    = "data: "
	eventSeparator = "\n\n"
	doneSentinel   = "[DONE]"

	// maxPayloadInError bounds the raw payload copied into a ParseError.
	maxPayloadInError = 256
)

// ErrDecoderFailed is returned by Feed after a previous feed failed.
var ErrDecoderFailed = errors.New("stream: decoder already failed")

// Decoder extracts completion deltas from an event byte stream.
// Zero value is ready to use. Not safe for concurrent use.
type Decoder struct {
	buf        []byte
	terminated bool
	failed     bool
}

// completionChunk is the expected completion payload shape.
type completionChunk struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Delta        *delta  `json:"delta"`
	Index        int     `json:"index"`
	FinishReason *string `json:"finish_reason"`
}

type delta struct {
	Content *string `json:"content"`
}

// providerFault is the structured error payload shape.
type providerFault struct {
	Error *faultDetail `json:"error"`
}

type faultDetail struct {
	Message string `json:"message"`
}

// Feed appends p to the internal buffer and extracts every complete event.
// It returns the decoded deltas in stream order and the number of buffered
// bytes consumed. A trailing partial event stays buffered untouched; a feed
// that completes no event returns zero deltas and zero consumed.
//
// Once the termination sentinel is observed, the decoder stops scanning and
// later feeds are no-ops. A payload matching neither expected shape fails
// the decode with a ParseError; a structured service error fails it with a
// ProviderError.
func (d *Decoder) Feed(p []byte) (deltas []string, consumed int, err error) {
	if d.failed {
		return nil, 0, ErrDecoderFailed
	}
	if d.terminated {
		return nil, 0, nil
	}

	d.buf = append(d.buf, p...)

	for !d.terminated {
		idx := bytes.Index(d.buf, []byte(eventSeparator))
		if idx < 0 {
			break
		}

		event := d.buf[:idx]
		d.buf = d.buf[idx+len(eventSeparator):]
		consumed += idx + len(eventSeparator)

		payload, ok := bytes.CutPrefix(event, []byte(eventPrefix))
		if !ok {
			// Not a data event; consume and ignore.
			continue
		}
		if bytes.HasPrefix(payload, []byte(doneSentinel)) {
			d.terminated = true
			break
		}

		text, perr := parsePayload(payload)
		if perr != nil {
			d.failed = true
			return deltas, consumed, perr
		}
		if text != "" {
			deltas = append(deltas, text)
		}
	}

	return deltas, consumed, nil
}

// Terminated reports whether the termination sentinel has been observed.
func (d *Decoder) Terminated() bool {
	return d.terminated
}

// Buffered returns the number of bytes retained for the next feed.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func parsePayload(payload []byte) (string, error) {
	var chunk completionChunk
	if err := json.Unmarshal(payload, &chunk); err == nil && chunk.Choices != nil {
		if len(chunk.Choices) > 0 {
			if dl := chunk.Choices[0].Delta; dl != nil && dl.Content != nil {
				return *dl.Content, nil
			}
		}
		return "", nil
	}

	var fault providerFault
	if err := json.Unmarshal(payload, &fault); err == nil && fault.Error != nil {
		return "", &ProviderError{Message: fault.Error.Message}
	}

	raw := payload
	if len(raw) > maxPayloadInError {
		raw = raw[:maxPayloadInError]
	}
	return "", &ParseError{Payload: string(raw)}
}
