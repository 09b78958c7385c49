package diff

import "fmt"

// Kind is the type of a single edit.
type Kind int

const (
	// Match is a line present in both sequences.
	Match Kind = iota
	// Insert is a line present only in the new sequence.
	Insert
	// Delete is a line present only in the old sequence.
	Delete
)

// Edit is one step of an edit script. Line is 1-based and refers to the
// sequence the line belongs to: old-sequence numbering for Match and Delete,
// new-sequence numbering for Insert.
type Edit struct {
	Kind Kind
	Line int
	Text string
}

// String renders the edit with its change marker: inserts with a leading
// '+', deletes with a leading '-', matches plain.
func (e Edit) String() string {
	switch e.Kind {
	case Insert:
		return fmt.Sprintf("+ %d %s", e.Line, e.Text)
	case Delete:
		return fmt.Sprintf("- %d %s", e.Line, e.Text)
	default:
		return fmt.Sprintf("%d %s", e.Line, e.Text)
	}
}
