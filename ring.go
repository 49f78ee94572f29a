package chash

import (
	"errors"
	"fmt"
	"hash"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gobwas/avl"
)

var (
	// ErrEmptyRing is returned when key lookup is made on a ring having no
	// nodes.
	ErrEmptyRing = errors.New("chash: ring is empty")

	// ErrNodeNotFound is returned when named node is not on the ring.
	ErrNodeNotFound = errors.New("chash: node not found")

	// ErrNodeExists is returned when node with same name is already on the
	// ring.
	ErrNodeExists = errors.New("chash: node already exists")

	// ErrKeyNotFound is returned when key is not present in the partition of
	// its owner node.
	ErrKeyNotFound = errors.New("chash: key not found")
)

// Ring is a consistent hashing ring holding key-value pairs.
// It is goroutine safe. Ring instances must not be copied.
// The zero value for Ring is an empty ring ready to use.
type Ring struct {
	// Hash is an optional function used to build up a new hash function for
	// node and key positions calculation. Digests are interpreted as
	// big-endian unsigned integers; only first PositionSize bytes are used.
	//
	// If Hash is nil, then SHA-256 is used.
	//
	// Hash must not be changed after the first use of the ring: hash states
	// are pooled and reused.
	Hash func() hash.Hash

	// Logger is an optional logger which receives debug messages about
	// ring topology changes.
	Logger log.Logger

	// hashPool is a pool of reusable hash functions.
	hashPool sync.Pool

	// mu serializes topology changes against all other operations.
	// Its write-end must be held when nodes are inserted or deleted and when
	// keys are moved between partitions.
	// Its read-end must be held when routing keys to nodes.
	mu sync.RWMutex

	// ring is a tree holding nodes in the ring order.
	// It is protected by r.mu mutex.
	ring avl.Tree // tree<*entry>

	// nodes is a mapping of node name to its entry on the ring.
	// It is protected by r.mu mutex.
	nodes map[string]*entry

	trace traceRing
}

// AddNode puts a node with given name onto the ring.
// Keys of the new node's successor are re-evaluated and those which now
// route to the new node are moved into its partition.
// It returns ErrNodeExists when node with the same name is on the ring.
func (r *Ring) AddNode(name string) error {
	pos := r.digest(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, has := r.nodes[name]; has {
		return fmt.Errorf("%w: %q", ErrNodeExists, name)
	}
	e := newEntry(name, pos)
	done := r.trace.onAddNode(e.node)

	r.ring = mustInsertTree(r.ring, e)
	if r.nodes == nil {
		r.nodes = make(map[string]*entry)
	}
	r.nodes[name] = e

	var moved int
	succ := r.successor(e)
	if succ != e {
		moved = r.rebalance(succ)
	}
	assertConsistent(r)
	done(moved)

	level.Debug(r.logger()).Log(
		"msg", "node added",
		"node", name,
		"label", e.node.Label(),
		"successor", succ.node.Name,
		"moved", moved,
	)

	return nil
}

// RemoveNode removes named node from the ring.
// All keys of the removed node are moved into its successor. If the removed
// node was the last one on the ring, its keys are discarded.
// It returns ErrNodeNotFound when there is no such node on the ring.
func (r *Ring) RemoveNode(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, has := r.nodes[name]
	if !has {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, name)
	}
	done := r.trace.onRemoveNode(e.node)

	succ := r.successor(e)
	r.ring = mustDeleteTree(r.ring, e)
	delete(r.nodes, name)

	var moved int
	e.part.mu.Lock()
	if succ != e {
		succ.part.mu.Lock()
		moved = e.part.move(func(x *Pair) *Partition {
			r.trace.onMove(x.Key, e.node, succ.node)
			return succ.part
		})
		succ.part.mu.Unlock()
	} else if n := e.part.len(); n > 0 {
		level.Warn(r.logger()).Log(
			"msg", "last node removed; discarding its keys",
			"node", name,
			"keys", n,
		)
		e.part.reset()
	}
	e.part.mu.Unlock()

	assertConsistent(r)
	done(moved)

	level.Debug(r.logger()).Log(
		"msg", "node removed",
		"node", name,
		"label", e.node.Label(),
		"successor", succ.node.Name,
		"moved", moved,
	)

	return nil
}

// Has returns true if named node is on the ring.
func (r *Ring) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, has := r.nodes[name]
	return has
}

// NumNodes returns number of nodes on the ring.
func (r *Ring) NumNodes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ring.Size()
}

// FindNode returns the node which owns the key.
// It returns ErrEmptyRing when there are no nodes on the ring.
func (r *Ring) FindNode(key string) (Node, error) {
	d := r.digest(key)

	r.mu.RLock()
	defer r.mu.RUnlock()

	e := r.find(d)
	if e == nil {
		return Node{}, ErrEmptyRing
	}
	return e.node, nil
}

// Get returns value stored under the key.
// It returns ErrKeyNotFound if key is missing in the owner's partition.
func (r *Ring) Get(key string) (interface{}, error) {
	d := r.digest(key)

	r.mu.RLock()
	defer r.mu.RUnlock()

	e := r.find(d)
	if e == nil {
		return nil, ErrEmptyRing
	}
	v, has := e.part.Get(key)
	if !has {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return v, nil
}

// Set stores value under the key in the owner's partition, overwriting
// previous value if any.
func (r *Ring) Set(key string, value interface{}) error {
	d := r.digest(key)

	r.mu.RLock()
	defer r.mu.RUnlock()

	e := r.find(d)
	if e == nil {
		return ErrEmptyRing
	}
	e.part.mu.Lock()
	e.part.set(key, value)
	e.part.mu.Unlock()

	return nil
}

// Delete removes the key from the owner's partition.
// It returns ErrKeyNotFound if there was no such key.
func (r *Ring) Delete(key string) error {
	d := r.digest(key)

	r.mu.RLock()
	defer r.mu.RUnlock()

	e := r.find(d)
	if e == nil {
		return ErrEmptyRing
	}
	e.part.mu.Lock()
	deleted := e.part.delete(key)
	e.part.mu.Unlock()

	if !deleted {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return nil
}

// PartitionOf returns live partition of the named node.
// It returns ErrNodeNotFound when there is no such node.
func (r *Ring) PartitionOf(name string) (*Partition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, has := r.nodes[name]
	if !has {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, name)
	}
	return e.part, nil
}

// r.mu must be held.
func (r *Ring) find(d Position) *entry {
	x := r.ring.Successor(search(d))
	if x == nil {
		// Wrap around to the lowest node.
		x = r.ring.Min()
	}
	if x == nil {
		return nil
	}
	return x.(*entry)
}

// successor returns the entry next to e clockwise. It returns e itself when
// e is the only entry on the ring.
//
// r.mu must be held.
func (r *Ring) successor(e *entry) *entry {
	x := r.ring.Successor(after{e})
	if x == nil {
		x = r.ring.Min()
	}
	return x.(*entry)
}

// rebalance moves keys of src to their owners.
// It returns number of moved keys.
//
// r.mu must be held for writing.
func (r *Ring) rebalance(src *entry) int {
	src.part.mu.Lock()
	defer src.part.mu.Unlock()

	locked := make(map[*Partition]bool)
	defer func() {
		for p := range locked {
			p.mu.Unlock()
		}
	}()
	return src.part.move(func(x *Pair) *Partition {
		dst := r.find(r.digest(x.Key))
		if dst == src {
			return nil
		}
		if !locked[dst.part] {
			dst.part.mu.Lock()
			locked[dst.part] = true
		}
		r.trace.onMove(x.Key, src.node, dst.node)
		return dst.part
	})
}

func (r *Ring) logger() log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.NewNopLogger()
}

func mustInsertTree(tree avl.Tree, x avl.Item) avl.Tree {
	tree, existing := tree.Insert(x)
	if existing != nil {
		panic("chash: internal error: mustInsert failed")
	}
	return tree
}

func mustDeleteTree(tree avl.Tree, x avl.Item) avl.Tree {
	tree, existed := tree.Delete(x)
	if existed == nil {
		panic("chash: internal error: mustDelete failed")
	}
	return tree
}
