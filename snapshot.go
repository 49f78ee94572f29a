package chash

import (
	"fmt"

	"github.com/gobwas/avl"
	"github.com/hashicorp/go-multierror"
)

// KeySnapshot describes a key stored on the ring.
type KeySnapshot struct {
	Pair
	Position Position
}

// Label returns short label of the key's position.
func (k KeySnapshot) Label() string {
	return k.Position.Label()
}

// NodeSnapshot describes a node and the keys it owns.
type NodeSnapshot struct {
	Node
	Keys []KeySnapshot
}

// Snapshot returns a copy of the ring structure: its nodes in the ring order,
// each with keys it owns in order of insertion.
// Values are not copied.
func (r *Ring) Snapshot() []NodeSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ret := make([]NodeSnapshot, 0, r.ring.Size())
	r.ring.InOrder(func(x avl.Item) bool {
		e := x.(*entry)

		e.part.mu.RLock()
		pairs := e.part.pairs()
		e.part.mu.RUnlock()

		keys := make([]KeySnapshot, len(pairs))
		for i, p := range pairs {
			keys[i] = KeySnapshot{
				Pair:     p,
				Position: r.digest(p.Key),
			}
		}
		ret = append(ret, NodeSnapshot{
			Node: e.node,
			Keys: keys,
		})
		return true
	})
	return ret
}

// Verify checks that every key is stored exactly once and that it is stored
// by the node it routes to. It returns nil if ring is consistent.
func (r *Ring) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.verify()
}

// r.mu must be held.
func (r *Ring) verify() error {
	var (
		result *multierror.Error
		seen   = make(map[string]Node)
	)
	if n, m := r.ring.Size(), len(r.nodes); n != m {
		result = multierror.Append(result, fmt.Errorf(
			"ring holds %d nodes while index holds %d", n, m,
		))
	}
	r.ring.InOrder(func(x avl.Item) bool {
		e := x.(*entry)
		if r.nodes[e.node.Name] != e {
			result = multierror.Append(result, fmt.Errorf(
				"node %s is not indexed", e.node,
			))
		}
		e.part.Range(func(key string, _ interface{}) bool {
			if prev, has := seen[key]; has {
				result = multierror.Append(result, fmt.Errorf(
					"key %q is owned by both %s and %s", key, prev, e.node,
				))
			}
			seen[key] = e.node
			if owner := r.find(r.digest(key)); owner != e {
				result = multierror.Append(result, fmt.Errorf(
					"key %q is stored by %s but routes to %s", key, e.node, owner.node,
				))
			}
			return true
		})
		return true
	})
	return result.ErrorOrNil()
}
