package chash

import (
	"bytes"
	"encoding/hex"

	"github.com/gobwas/avl"
)

// PositionSize is the size of a ring position in bytes.
const PositionSize = 32

// Position is a 256-bit unsigned point on the ring, stored in big-endian
// order.
type Position [PositionSize]byte

// newPosition returns a position built from a digest sum.
// Shorter sums occupy the most significant bytes, longer ones are truncated.
func newPosition(sum []byte) (p Position) {
	copy(p[:], sum)
	return p
}

// Compare returns an integer comparing two positions numerically.
func (p Position) Compare(x Position) int {
	return bytes.Compare(p[:], x[:])
}

// Label returns the first 6 hex digits of the position.
func (p Position) Label() string {
	return hex.EncodeToString(p[:3])
}

func (p Position) String() string {
	return hex.EncodeToString(p[:])
}

// Node describes a node placed on the ring.
type Node struct {
	Name     string
	Position Position
}

// Label returns short human readable label of the node's position.
func (n Node) Label() string {
	return n.Position.Label()
}

func (n Node) String() string {
	return n.Name + "@" + n.Label()
}

// entry is a node on the ring together with the partition it owns.
type entry struct {
	node Node
	part *Partition
}

func newEntry(name string, pos Position) *entry {
	return &entry{
		node: Node{
			Name:     name,
			Position: pos,
		},
		part: new(Partition),
	}
}

// Compare orders entries by position and then by name, so entries having
// same position still have stable order on the ring.
func (e *entry) Compare(x avl.Item) int {
	return compareNodes(e.node, x.(*entry).node)
}

func compareNodes(n0, n1 Node) int {
	if c := n0.Position.Compare(n1.Position); c != 0 {
		return c
	}
	switch {
	case n0.Name < n1.Name:
		return -1
	case n0.Name > n1.Name:
		return 1
	}
	return 0
}

// search is a digest of a key looked up on the ring.
// It never equals to an entry: entries having same position as the digest are
// considered less than it, so the tree successor of a search is the first
// entry with position strictly greater than digest.
type search Position

func (s search) Compare(x avl.Item) int {
	if c := Position(s).Compare(x.(*entry).node.Position); c != 0 {
		return c
	}
	return 1
}

// after is placed between an entry and its immediate successor.
type after struct {
	*entry
}

func (a after) Compare(x avl.Item) int {
	if c := a.entry.Compare(x); c != 0 {
		return c
	}
	return 1
}
