// Package diff computes line-level shortest edit scripts between two texts.
//
// Lines are interned into small integer ids shared across both inputs, so
// the edit-script engine compares integers instead of strings.
package diff

import "strings"

// LineSequence is an ordered sequence of lines paired with interned ids.
// Two sequences built together report equal ids iff the line text is
// byte-identical. Read-only after construction.
type LineSequence struct {
	hashes []int
	lines  []string
}

// Sequences splits both texts into lines and interns them with a shared id
// table, allocated in first-seen order across both texts combined.
func Sequences(oldText, newText string) (LineSequence, LineSequence) {
	ids := make(map[string]int)

	intern := func(text string) LineSequence {
		lines := splitLines(text)
		hashes := make([]int, len(lines))
		for i, line := range lines {
			id, ok := ids[line]
			if !ok {
				id = len(ids)
				ids[line] = id
			}
			hashes[i] = id
		}
		return LineSequence{hashes: hashes, lines: lines}
	}

	return intern(oldText), intern(newText)
}

// Len returns the number of lines in the sequence.
func (s LineSequence) Len() int {
	return len(s.hashes)
}

// Line returns the text of the i-th line (0-based).
func (s LineSequence) Line(i int) string {
	return s.lines[i]
}

// splitLines splits on '\n', dropping a trailing empty segment produced by a
// final newline and stripping a trailing '\r' from each line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
