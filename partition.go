package chash

import (
	"container/list"
	"sync"
)

// Pair is a key-value pair stored on the ring.
type Pair struct {
	Key   string
	Value interface{}
}

// Partition holds pairs owned by single node.
// Pairs are kept in the order of their insertion; overwriting a key does not
// change its order.
//
// Partition returned by Ring.PartitionOf() is live: it reflects further
// changes made through the ring.
type Partition struct {
	mu sync.RWMutex

	index map[string]*list.Element
	order list.List // list<*Pair>
}

// Len returns number of pairs in the partition.
func (p *Partition) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.len()
}

// Get returns value stored under the key.
func (p *Partition) Get(key string) (value interface{}, has bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.get(key)
}

// Range calls fn for every pair in the partition until fn returns false.
// It returns false if iteration was interrupted.
// The partition is locked for reading while fn is called.
func (p *Partition) Range(fn func(key string, value interface{}) bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.each(fn)
}

func (p *Partition) len() int {
	return p.order.Len()
}

func (p *Partition) get(key string) (interface{}, bool) {
	el, has := p.index[key]
	if !has {
		return nil, false
	}
	return el.Value.(*Pair).Value, true
}

func (p *Partition) set(key string, value interface{}) {
	if el, has := p.index[key]; has {
		el.Value.(*Pair).Value = value
		return
	}
	p.push(&Pair{
		Key:   key,
		Value: value,
	})
}

func (p *Partition) push(x *Pair) {
	if p.index == nil {
		p.index = make(map[string]*list.Element)
	}
	p.index[x.Key] = p.order.PushBack(x)
}

func (p *Partition) delete(key string) bool {
	el, has := p.index[key]
	if !has {
		return false
	}
	delete(p.index, key)
	p.order.Remove(el)
	return true
}

func (p *Partition) each(fn func(string, interface{}) bool) bool {
	for el := p.order.Front(); el != nil; el = el.Next() {
		x := el.Value.(*Pair)
		if !fn(x.Key, x.Value) {
			return false
		}
	}
	return true
}

// move moves pairs into partitions returned by fn, preserving their relative
// order. Pairs for which fn returns nil or p itself stay in place.
// It returns number of moved pairs.
//
// p.mu and mutexes of all destination partitions must be held.
func (p *Partition) move(fn func(*Pair) *Partition) (n int) {
	for el := p.order.Front(); el != nil; {
		next := el.Next()
		x := el.Value.(*Pair)
		if dst := fn(x); dst != nil && dst != p {
			delete(p.index, x.Key)
			p.order.Remove(el)
			dst.push(x)
			n++
		}
		el = next
	}
	return n
}

func (p *Partition) reset() {
	p.index = nil
	p.order.Init()
}

// pairs returns a copy of partition's pairs.
func (p *Partition) pairs() []Pair {
	ret := make([]Pair, 0, p.len())
	for el := p.order.Front(); el != nil; el = el.Next() {
		ret = append(ret, *el.Value.(*Pair))
	}
	return ret
}
