package chash

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/cespare/xxhash/v2"
)

// SHA256 returns SHA-256 hash function. It is used when Ring.Hash is nil.
func SHA256() hash.Hash {
	return sha256.New()
}

// XXHash returns 64-bit xxHash function.
// Its digest makes up the most significant 64 bits of ring positions, which
// keeps positions uniform while being faster to compute than SHA-256.
func XXHash() hash.Hash {
	return xxhash.New()
}

// ShortLabel returns first 6 hex digits of the SHA-256 digest of p.
// It is meant for diagnostics only.
func ShortLabel(p []byte) string {
	sum := sha256.Sum256(p)
	return hex.EncodeToString(sum[:3])
}

func (r *Ring) digest(s string) Position {
	h, _ := r.hashPool.Get().(hash.Hash)
	if h == nil {
		if r.Hash != nil {
			h = r.Hash()
		} else {
			h = sha256.New()
		}
	}
	defer func() {
		h.Reset()
		r.hashPool.Put(h)
	}()

	// NOTE: hash.Hash never returns an error from Write().
	h.Write([]byte(s))

	var buf [PositionSize]byte
	return newPosition(h.Sum(buf[:0]))
}

// Label returns short label of the key's position on the ring.
func (r *Ring) Label(key string) string {
	return r.digest(key).Label()
}
