//go:build !chash_debug
// +build !chash_debug

package chash

const debug = false

func assertConsistent(*Ring) {}
func setupRingTrace(*Ring)   {}
