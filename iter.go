package chash

import "github.com/gobwas/avl"

// Items calls fn for every key-value pair stored on the ring until fn returns
// false. Pairs are visited in the ring order of their nodes, and in order of
// insertion within single node.
//
// The ring is locked for reading during iteration, so fn must not call
// methods of the ring.
func (r *Ring) Items(fn func(key string, value interface{}) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// NOTE: avl.Tree.InOrder() visits every item regardless of the returned
	// value, so partitions after the stop must be skipped here.
	var stopped bool
	r.ring.InOrder(func(x avl.Item) bool {
		if stopped {
			return false
		}
		stopped = !x.(*entry).part.Range(fn)
		return !stopped
	})
}

// Keys calls fn for every key stored on the ring until fn returns false.
// It visits keys in the same order as Items() does.
func (r *Ring) Keys(fn func(key string) bool) {
	r.Items(func(key string, _ interface{}) bool {
		return fn(key)
	})
}

// Values calls fn for every value stored on the ring until fn returns false.
// It visits values in the same order as Items() does.
func (r *Ring) Values(fn func(value interface{}) bool) {
	r.Items(func(_ string, value interface{}) bool {
		return fn(value)
	})
}

// Len returns total number of keys stored on the ring.
func (r *Ring) Len() (n int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.ring.InOrder(func(x avl.Item) bool {
		n += x.(*entry).part.Len()
		return true
	})
	return n
}

// Nodes returns nodes in the ring order.
func (r *Ring) Nodes() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ret := make([]Node, 0, r.ring.Size())
	r.ring.InOrder(func(x avl.Item) bool {
		ret = append(ret, x.(*entry).node)
		return true
	})
	return ret
}
