// Package tracker decides, per referenced file, whether to send full
// content, a minimal diff, or only a reference marker.
//
// The first reference to a path sends the whole file with line numbers;
// later references send a line-level diff against the baseline recorded at
// the last send, or nothing when the file has not been modified since.
package tracker

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/richinex/pilotchat/chat"
	"github.com/richinex/pilotchat/diff"
)

// FileReader is the file-read capability the tracker depends on.
type FileReader interface {
	// ReadFile returns the full content and modification time of path.
	ReadFile(path string) (string, time.Time, error)
	// ModTime returns the modification time of path without reading it.
	ModTime(path string) (time.Time, error)
}

// OSReader reads files from the local filesystem.
type OSReader struct{}

func (OSReader) ReadFile(path string) (string, time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("read %s: %w", path, err)
	}
	return string(content), info.ModTime(), nil
}

func (OSReader) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

var _ FileReader = OSReader{}

// TrackedFile is the baseline snapshot of one referenced file: the content
// and modification time last actually sent. Content is excluded from the
// persisted form.
type TrackedFile struct {
	Path       string    `json:"path"`
	Content    string    `json:"-"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Tracker owns the per-path baselines for one session. Not safe for
// concurrent use; callers sharing one across requests must serialize.
type Tracker struct {
	reader FileReader
	files  map[string]*TrackedFile
}

// New creates a tracker reading files through reader.
func New(reader FileReader) *Tracker {
	return &Tracker{
		reader: reader,
		files:  make(map[string]*TrackedFile),
	}
}

// Reference resolves one "path[:start-end]" file argument into the messages
// to attach to the next request:
//
//   - unseen path: the full line-numbered load-once block, then the marker;
//   - tracked and unmodified: only the marker;
//   - tracked and modified: the updates block (when lines changed), then
//     the marker; the baseline is replaced by the current snapshot.
//
// A read failure aborts the operation and leaves the baseline unchanged,
// so a retry is safe.
func (t *Tracker) Reference(arg string) ([]chat.Message, error) {
	path, rng := SplitArg(arg)

	f, ok := t.files[path]
	if !ok {
		return t.loadOnce(path, rng)
	}

	// Baselines restored from a saved session carry no content; re-read to
	// repopulate, there is nothing usable to diff against.
	if f.Content == "" {
		content, modTime, err := t.reader.ReadFile(path)
		if err != nil {
			return nil, err
		}
		f.Content = content
		f.ModifiedAt = modTime
		zap.L().Debug("repopulated restored baseline", zap.String("path", path))
		return []chat.Message{chat.UserMessage(marker(path, rng))}, nil
	}

	modTime, err := t.reader.ModTime(path)
	if err != nil {
		return nil, err
	}
	if !modTime.After(f.ModifiedAt) {
		zap.L().Debug("file unmodified, marker only", zap.String("path", path))
		return []chat.Message{chat.UserMessage(marker(path, rng))}, nil
	}

	content, modTime, err := t.reader.ReadFile(path)
	if err != nil {
		return nil, err
	}

	old, new := diff.Sequences(f.Content, content)
	edits := diff.Compute(old, new)

	var msgs []chat.Message
	if hasChanges(edits) {
		zap.L().Debug("file changed, attaching updates",
			zap.String("path", path), zap.Int("edits", len(edits)))
		msgs = append(msgs, chat.UserMessage(formatUpdates(path, edits)))
	}

	f.Content = content
	f.ModifiedAt = modTime

	return append(msgs, chat.UserMessage(marker(path, rng))), nil
}

func (t *Tracker) loadOnce(path string, rng *Range) ([]chat.Message, error) {
	content, modTime, err := t.reader.ReadFile(path)
	if err != nil {
		return nil, err
	}

	t.files[path] = &TrackedFile{Path: path, Content: content, ModifiedAt: modTime}
	zap.L().Debug("tracking new file", zap.String("path", path))

	return []chat.Message{
		chat.UserMessage(fmt.Sprintf("File: %s [load-once]\n\n%s", path, numberLines(content))),
		chat.UserMessage(marker(path, rng)),
	}, nil
}

// Baselines returns the tracked snapshots sorted by path, for persistence.
func (t *Tracker) Baselines() []TrackedFile {
	out := make([]TrackedFile, 0, len(t.files))
	for _, f := range t.files {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Restore installs baselines loaded from a saved session, replacing any
// current state. Restored entries typically carry no content.
func (t *Tracker) Restore(files []TrackedFile) {
	t.files = make(map[string]*TrackedFile, len(files))
	for _, f := range files {
		copy := f
		t.files[f.Path] = &copy
	}
}

func marker(path string, rng *Range) string {
	if rng == nil {
		return "File: " + path
	}
	return "File: " + path + rng.String()
}

func numberLines(content string) string {
	if content == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%d: %s\n", i+1, line)
	}
	return b.String()
}

func formatUpdates(path string, edits []diff.Edit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here the updates of the file %s:\n\n", path)
	for _, e := range edits {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func hasChanges(edits []diff.Edit) bool {
	for _, e := range edits {
		if e.Kind != diff.Match {
			return true
		}
	}
	return false
}
