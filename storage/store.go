// Package storage persists chat sessions keyed by working directory.
//
// Information Hiding:
// - Persisted record shape and encoding
// - Directory-to-key escaping
// - Backend details (JSON files or SQLite) behind the Store interface
package storage

import (
	"context"
	"fmt"

	"github.com/richinex/pilotchat/chat"
	"github.com/richinex/pilotchat/tracker"
)

// Record is one persisted session: the ordered message history and the
// tracked-file baselines. Baseline content is never persisted; TrackedFile
// excludes it from its JSON form, so restored baselines carry path and
// modification time only.
type Record struct {
	Key      string                `json:"key"`
	Messages []chat.Message        `json:"messages"`
	Files    []tracker.TrackedFile `json:"tracked_files"`
}

// Store persists session records.
type Store interface {
	// Save writes the record, replacing any previous record with the
	// same key.
	Save(ctx context.Context, rec Record) error

	// Load returns the record for the key. The bool reports whether a
	// record existed.
	Load(ctx context.Context, key string) (Record, bool, error)

	// Delete removes the record for the key. Deleting a missing record
	// is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// SessionKey escapes a directory path into a flat key. Every byte outside
// [0-9A-Za-z] is percent-escaped so distinct paths never collide.
func SessionKey(dir string) string {
	var out []byte
	for i := 0; i < len(dir); i++ {
		c := dir[i]
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			out = append(out, c)
			continue
		}
		out = append(out, fmt.Sprintf("%%%02X", c)...)
	}
	return string(out)
}
