package network

import "fmt"

// NodeID identifies a node inside one network instance. IDs are dense,
// start at 0 (the constant-false node) and follow creation order, so every
// fanin of a node has a smaller ID than the node itself.
type NodeID uint32

// Signal is a reference to a node together with a complement bit, encoded
// as id<<1 | complemented. The zero Signal is constant false.
type Signal uint32

const (
	// False is the constant-false signal.
	False Signal = 0
	// True is the complemented constant node.
	True Signal = 1
)

// MakeSignal creates a signal pointing at id.
func MakeSignal(id NodeID, complemented bool) Signal {
	s := Signal(id) << 1
	if complemented {
		s |= 1
	}
	return s
}

// Node returns the node the signal points at.
func (s Signal) Node() NodeID {
	return NodeID(s >> 1)
}

// IsComplemented reports whether the edge carries a logical NOT.
func (s Signal) IsComplemented() bool {
	return s&1 == 1
}

// Not returns the complemented signal.
func (s Signal) Not() Signal {
	return s ^ 1
}

// NotIf complements s when c is true.
func (s Signal) NotIf(c bool) Signal {
	if c {
		return s ^ 1
	}
	return s
}

// Regular returns s without its complement bit.
func (s Signal) Regular() Signal {
	return s &^ 1
}

func (s Signal) String() string {
	switch s {
	case False:
		return "0"
	case True:
		return "1"
	}
	if s.IsComplemented() {
		return fmt.Sprintf("!n%d", s.Node())
	}
	return fmt.Sprintf("n%d", s.Node())
}
