//go:build chash_debug
// +build chash_debug

package chash

import (
	"fmt"
	"log"
)

const debug = true

// r.mu must be held.
func assertConsistent(r *Ring) {
	if err := r.verify(); err != nil {
		panic(fmt.Sprintf(
			"chash: internal error: ring is inconsistent: %v", err,
		))
	}
}

func setupRingTrace(r *Ring) {
	log.SetFlags(0)

	r.trace = r.trace.Compose(traceRing{
		OnAddNode: func(n Node) func(int) {
			log.Println("adding:", n)
			return func(moved int) {
				log.Printf("added %s: %d keys moved", n, moved)
			}
		},
		OnRemoveNode: func(n Node) func(int) {
			log.Println("removing:", n)
			return func(moved int) {
				log.Printf("removed %s: %d keys moved", n, moved)
			}
		},
		OnMove: func(key string, from, to Node) {
			log.Printf("    rebalancing %q: %s -> %s", key, from, to)
		},
	})
}
