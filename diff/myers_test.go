package diff

import "testing"

func TestComputeShortestScript(t *testing.T) {
	oldText := `hello, this is a test
and this is a Myers' Algorithm
hello world
Bye world
`
	newText := `bye, this is a test
and this is a Myers' Algorithm
hello earth
bye world
additional line
`

	old, new := Sequences(oldText, newText)
	edits := Compute(old, new)

	expected := []Edit{
		{Delete, 1, "hello, this is a test"},
		{Insert, 1, "bye, this is a test"},
		{Match, 2, "and this is a Myers' Algorithm"},
		{Delete, 3, "hello world"},
		{Delete, 4, "Bye world"},
		{Insert, 3, "hello earth"},
		{Insert, 4, "bye world"},
		{Insert, 5, "additional line"},
	}

	if len(edits) != len(expected) {
		t.Fatalf("expected %d edits, got %d: %v", len(expected), len(edits), edits)
	}
	for i, e := range edits {
		if e != expected[i] {
			t.Errorf("edit %d: expected %+v, got %+v", i, expected[i], e)
		}
	}
}

func TestComputeIdenticalTexts(t *testing.T) {
	text := "line one\nline two\nline three\n"

	old, new := Sequences(text, text)
	edits := Compute(old, new)

	if len(edits) != 3 {
		t.Fatalf("expected 3 edits, got %d: %v", len(edits), edits)
	}
	for i, e := range edits {
		if e.Kind != Match {
			t.Errorf("edit %d: expected match, got %+v", i, e)
		}
		if e.Line != i+1 {
			t.Errorf("edit %d: expected line %d, got %d", i, i+1, e.Line)
		}
	}
}

func TestComputeEmptyTexts(t *testing.T) {
	old, new := Sequences("", "")
	if edits := Compute(old, new); len(edits) != 0 {
		t.Errorf("expected empty script, got %v", edits)
	}
}

func TestComputeInsertOnly(t *testing.T) {
	old, new := Sequences("", "first\nsecond\n")
	edits := Compute(old, new)

	if len(edits) != 2 {
		t.Fatalf("expected 2 edits, got %d: %v", len(edits), edits)
	}
	for i, e := range edits {
		if e.Kind != Insert {
			t.Errorf("edit %d: expected insert, got %+v", i, e)
		}
		if e.Line != i+1 {
			t.Errorf("edit %d: expected line %d, got %d", i, i+1, e.Line)
		}
	}
}

func TestComputeDeleteOnly(t *testing.T) {
	old, new := Sequences("first\nsecond\n", "")
	edits := Compute(old, new)

	if len(edits) != 2 {
		t.Fatalf("expected 2 edits, got %d: %v", len(edits), edits)
	}
	for _, e := range edits {
		if e.Kind != Delete {
			t.Errorf("expected delete, got %+v", e)
		}
	}
}

func TestComputeLeadingMatches(t *testing.T) {
	old, new := Sequences("same\nold tail\n", "same\nnew tail\n")
	edits := Compute(old, new)

	if len(edits) == 0 || edits[0] != (Edit{Match, 1, "same"}) {
		t.Fatalf("expected leading match, got %v", edits)
	}
}

func TestEditString(t *testing.T) {
	cases := []struct {
		edit Edit
		want string
	}{
		{Edit{Match, 2, "kept"}, "2 kept"},
		{Edit{Insert, 1, "added"}, "+ 1 added"},
		{Edit{Delete, 3, "gone"}, "- 3 gone"},
	}
	for _, c := range cases {
		if got := c.edit.String(); got != c.want {
			t.Errorf("expected %q, got %q", c.want, got)
		}
	}
}

func TestSequencesShareIds(t *testing.T) {
	old, new := Sequences("a\nb\n", "b\na\nc\n")

	if old.Len() != 2 || new.Len() != 3 {
		t.Fatalf("unexpected lengths %d %d", old.Len(), new.Len())
	}
	if old.hashes[0] != new.hashes[1] {
		t.Errorf("identical lines got distinct ids: %v %v", old.hashes, new.hashes)
	}
	if old.hashes[1] != new.hashes[0] {
		t.Errorf("identical lines got distinct ids: %v %v", old.hashes, new.hashes)
	}
	if new.hashes[2] == old.hashes[0] || new.hashes[2] == old.hashes[1] {
		t.Errorf("distinct line shares an id: %v %v", old.hashes, new.hashes)
	}
}
