package tracker

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeReader serves file content from memory.
type fakeReader struct {
	content map[string]string
	modTime map[string]time.Time
	reads   int
}

func (r *fakeReader) ReadFile(path string) (string, time.Time, error) {
	content, ok := r.content[path]
	if !ok {
		return "", time.Time{}, errors.New("no such file: " + path)
	}
	r.reads++
	return content, r.modTime[path], nil
}

func (r *fakeReader) ModTime(path string) (time.Time, error) {
	mt, ok := r.modTime[path]
	if !ok {
		return time.Time{}, errors.New("no such file: " + path)
	}
	return mt, nil
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		content: make(map[string]string),
		modTime: make(map[string]time.Time),
	}
}

func TestReferenceFirstTimeLoadsOnce(t *testing.T) {
	reader := newFakeReader()
	reader.content["/src/main.go"] = "package main\n\nfunc main() {}\n"
	reader.modTime["/src/main.go"] = time.Now()

	tr := New(reader)
	msgs, err := tr.Reference("/src/main.go")
	if err != nil {
		t.Fatalf("Reference failed: %v", err)
	}

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	want := "File: /src/main.go [load-once]\n\n1: package main\n2: \n3: func main() {}\n"
	if msgs[0].Content != want {
		t.Errorf("expected load-once payload %q, got %q", want, msgs[0].Content)
	}
	if msgs[1].Content != "File: /src/main.go" {
		t.Errorf("expected marker, got %q", msgs[1].Content)
	}
}

func TestReferenceUnmodifiedEmitsMarkerOnly(t *testing.T) {
	reader := newFakeReader()
	mod := time.Now()
	reader.content["/a.txt"] = "one\n"
	reader.modTime["/a.txt"] = mod

	tr := New(reader)
	if _, err := tr.Reference("/a.txt"); err != nil {
		t.Fatalf("first reference failed: %v", err)
	}

	msgs, err := tr.Reference("/a.txt")
	if err != nil {
		t.Fatalf("second reference failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "File: /a.txt" {
		t.Fatalf("expected marker only, got %v", msgs)
	}
}

func TestReferenceModifiedSendsDiff(t *testing.T) {
	reader := newFakeReader()
	mod := time.Now()
	reader.content["/a.txt"] = "one\ntwo\n"
	reader.modTime["/a.txt"] = mod

	tr := New(reader)
	if _, err := tr.Reference("/a.txt"); err != nil {
		t.Fatalf("first reference failed: %v", err)
	}

	reader.content["/a.txt"] = "one\nthree\n"
	reader.modTime["/a.txt"] = mod.Add(time.Second)

	msgs, err := tr.Reference("/a.txt")
	if err != nil {
		t.Fatalf("second reference failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected diff block and marker, got %v", msgs)
	}

	want := "Here the updates of the file /a.txt:\n\n1 one\n- 2 two\n+ 2 three\n"
	if msgs[0].Content != want {
		t.Errorf("expected %q, got %q", want, msgs[0].Content)
	}

	// The baseline advanced: a third reference is a no-op.
	msgs, err = tr.Reference("/a.txt")
	if err != nil {
		t.Fatalf("third reference failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("expected marker only after baseline update, got %v", msgs)
	}
}

func TestReferenceTouchedButIdenticalSkipsDiff(t *testing.T) {
	reader := newFakeReader()
	mod := time.Now()
	reader.content["/a.txt"] = "same\n"
	reader.modTime["/a.txt"] = mod

	tr := New(reader)
	if _, err := tr.Reference("/a.txt"); err != nil {
		t.Fatalf("first reference failed: %v", err)
	}

	// Touch without changing content.
	reader.modTime["/a.txt"] = mod.Add(time.Minute)

	msgs, err := tr.Reference("/a.txt")
	if err != nil {
		t.Fatalf("second reference failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "File: /a.txt" {
		t.Fatalf("expected marker only for identical content, got %v", msgs)
	}
}

func TestReferenceReadFailureLeavesBaseline(t *testing.T) {
	reader := newFakeReader()
	mod := time.Now()
	reader.content["/a.txt"] = "one\n"
	reader.modTime["/a.txt"] = mod

	tr := New(reader)
	if _, err := tr.Reference("/a.txt"); err != nil {
		t.Fatalf("first reference failed: %v", err)
	}

	// Stat succeeds with a newer time, but the read fails.
	reader.modTime["/a.txt"] = mod.Add(time.Second)
	delete(reader.content, "/a.txt")

	if _, err := tr.Reference("/a.txt"); err == nil {
		t.Fatal("expected read error")
	}

	// Retry with the content back: the old baseline is still in place, so
	// the change is diffed against it.
	reader.content["/a.txt"] = "two\n"
	msgs, err := tr.Reference("/a.txt")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(msgs) != 2 || !strings.Contains(msgs[0].Content, "- 1 one") {
		t.Fatalf("expected diff against preserved baseline, got %v", msgs)
	}
}

func TestReferenceUnknownPathFails(t *testing.T) {
	tr := New(newFakeReader())
	if _, err := tr.Reference("/missing.txt"); err == nil {
		t.Fatal("expected error for unknown path")
	}
	if len(tr.Baselines()) != 0 {
		t.Error("failed read must not create a baseline")
	}
}

func TestReferenceWithRangeMarker(t *testing.T) {
	reader := newFakeReader()
	reader.content["/a.txt"] = "one\n"
	reader.modTime["/a.txt"] = time.Now()

	tr := New(reader)
	msgs, err := tr.Reference("/a.txt:10-20")
	if err != nil {
		t.Fatalf("Reference failed: %v", err)
	}
	if msgs[len(msgs)-1].Content != "File: /a.txt:10-20" {
		t.Errorf("expected ranged marker, got %q", msgs[len(msgs)-1].Content)
	}

	// Open-ended range renders without the dash.
	msgs, err = tr.Reference("/a.txt:10-")
	if err != nil {
		t.Fatalf("Reference failed: %v", err)
	}
	if msgs[len(msgs)-1].Content != "File: /a.txt:10" {
		t.Errorf("expected open-ended marker, got %q", msgs[len(msgs)-1].Content)
	}
}

func TestRestoreWithoutContentRepopulates(t *testing.T) {
	reader := newFakeReader()
	mod := time.Now()
	reader.content["/a.txt"] = "one\n"
	reader.modTime["/a.txt"] = mod

	tr := New(reader)
	tr.Restore([]TrackedFile{{Path: "/a.txt", ModifiedAt: mod.Add(-time.Hour)}})

	msgs, err := tr.Reference("/a.txt")
	if err != nil {
		t.Fatalf("Reference failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "File: /a.txt" {
		t.Fatalf("expected marker only after restore, got %v", msgs)
	}

	// The baseline now carries content and time; an unchanged file stays quiet.
	msgs, err = tr.Reference("/a.txt")
	if err != nil {
		t.Fatalf("Reference failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected marker only, got %v", msgs)
	}
}

func TestBaselinesSorted(t *testing.T) {
	reader := newFakeReader()
	now := time.Now()
	for _, p := range []string{"/b.txt", "/a.txt", "/c.txt"} {
		reader.content[p] = "x\n"
		reader.modTime[p] = now
	}

	tr := New(reader)
	for _, p := range []string{"/b.txt", "/c.txt", "/a.txt"} {
		if _, err := tr.Reference(p); err != nil {
			t.Fatalf("Reference %s failed: %v", p, err)
		}
	}

	baselines := tr.Baselines()
	if len(baselines) != 3 {
		t.Fatalf("expected 3 baselines, got %d", len(baselines))
	}
	for i, want := range []string{"/a.txt", "/b.txt", "/c.txt"} {
		if baselines[i].Path != want {
			t.Errorf("baseline %d: expected %s, got %s", i, want, baselines[i].Path)
		}
	}
}

func TestSplitArg(t *testing.T) {
	path, rng := SplitArg("/path/to/file:20-30")
	if path != "/path/to/file" {
		t.Errorf("expected clean path, got %q", path)
	}
	if rng == nil || rng.Start != 20 || rng.End != 30 {
		t.Errorf("expected range 20-30, got %+v", rng)
	}

	path, rng = SplitArg("/plain/file")
	if path != "/plain/file" || rng != nil {
		t.Errorf("expected no range, got %q %+v", path, rng)
	}

	path, rng = SplitArg("/file:7")
	if path != "/file" || rng != nil {
		t.Errorf("expected colon without dash to drop the range, got %q %+v", path, rng)
	}
}
