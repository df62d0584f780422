package contrib

import (
	"fmt"
)

type Kind int

const (
	// SectionOvershoot means more bytes were attributed to a section than
	// it holds.
	SectionOvershoot Kind = iota
	// ChildOvershoot means nested functions cover more bytes than their
	// parent.
	ChildOvershoot
	// InputOvershoot means the attributed total exceeds the input size.
	InputOvershoot
	// SizeUnderflow means a function's code range ends before it starts.
	// Limit holds the start and Got the end.
	SizeUnderflow
)

func (k Kind) String() string {
	return []string{"Section overshoot", "Child overshoot", "Input overshoot", "Size underflow"}[k]
}

// Inconsistency reports attributed bytes exceeding a known bound. The
// analysis still completes but its numbers are suspect.
type Inconsistency struct {
	Kind  Kind
	Where string
	Limit uint64
	Got   uint64
}

func (i *Inconsistency) Error() string {
	if i.Kind == SizeUnderflow {
		return fmt.Sprintf("%s: %s ends at %#x before it starts at %#x", i.Kind, i.Where, i.Got, i.Limit)
	}
	return fmt.Sprintf("%s: %s has %d bytes attributed but only holds %d", i.Kind, i.Where, i.Got, i.Limit)
}
