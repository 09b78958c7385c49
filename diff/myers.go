package diff

// Compute returns the shortest edit script transforming old into new, using
// the greedy forward variant of Myers' algorithm at line granularity.
//
// The forward pass records the furthest-reached x per diagonal for each edit
// distance d; the backtrack walks those arrays from the bottom-right corner
// back to the origin, so reconstruction allocates nothing beyond the edit
// slice. O(N*D) time and space, N = old.Len()+new.Len(), D = edit distance.
// Identical sequences yield a script of Match entries, one per line.
func Compute(old, new LineSequence) []Edit {
	max := old.Len() + new.Len()
	if max == 0 {
		return nil
	}

	var trace []diagonals
	v := newDiagonals(max)
	v.set(1, 0)

	finalD := 0
forward:
	for d := 0; d <= max; d++ {
		cur := newDiagonals(max)
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v.get(k-1) < v.get(k+1)) {
				x = v.get(k + 1) // came from below: insertion
			} else {
				x = v.get(k-1) + 1 // came from the left: deletion
			}
			y := x - k
			for x < old.Len() && y < new.Len() && old.hashes[x] == new.hashes[y] {
				x++
				y++
			}
			cur.set(k, x)
			if x >= old.Len() && y >= new.Len() {
				finalD = d
				break forward
			}
		}
		trace = append(trace, cur)
		v = cur
	}

	// Backtrack from the corner. Each level emits the snake's matches, then
	// the single insert or delete that crossed into it.
	x, y := old.Len(), new.Len()
	var edits []Edit

	for d := finalD - 1; d >= 0; d-- {
		v := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && v.get(k-1) < v.get(k+1)) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}

		prevX := v.get(prevK)
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			edits = append(edits, Edit{Kind: Match, Line: x, Text: old.lines[x-1]})
			x--
			y--
		}

		if x == prevX {
			edits = append(edits, Edit{Kind: Insert, Line: y, Text: new.lines[y-1]})
			y--
		} else {
			edits = append(edits, Edit{Kind: Delete, Line: x, Text: old.lines[x-1]})
			x--
		}
	}

	// Remaining snake along diagonal zero.
	for x > 0 && y > 0 {
		edits = append(edits, Edit{Kind: Match, Line: x, Text: old.lines[x-1]})
		x--
		y--
	}

	for i, j := 0, len(edits)-1; i < j; i, j = i+1, j-1 {
		edits[i], edits[j] = edits[j], edits[i]
	}
	return edits
}

// diagonals is a furthest-x array indexed by diagonal k, which may be
// negative. Reads outside the recorded range report -1 (unreached).
type diagonals struct {
	pos []int
	neg []int
}

func newDiagonals(n int) diagonals {
	d := diagonals{
		pos: make([]int, n+1),
		neg: make([]int, n+1),
	}
	for i := range d.pos {
		d.pos[i] = -1
		d.neg[i] = -1
	}
	return d
}

func (d diagonals) get(k int) int {
	if k < 0 {
		if -k >= len(d.neg) {
			return -1
		}
		return d.neg[-k]
	}
	if k >= len(d.pos) {
		return -1
	}
	return d.pos[k]
}

func (d diagonals) set(k, x int) {
	if k < 0 {
		d.neg[-k] = x
		return
	}
	d.pos[k] = x
}
