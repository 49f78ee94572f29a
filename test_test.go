package chash

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"testing"
)

// setupDigest makes r to compute positions of strings listed in values as
// big-endian integers placed in the most significant bytes. Other strings are
// hashed with SHA-256.
func setupDigest(t testing.TB, r *Ring, values map[string]uint64) {
	r.Hash = func() hash.Hash {
		return &hash256{
			t:      t,
			values: values,
		}
	}
}

// at returns position which digest returns for a string mapped to v.
func at(v uint64) (p Position) {
	binary.BigEndian.PutUint64(p[:], v)
	return p
}

type hash256 struct {
	t      testing.TB
	values map[string]uint64
	buf    bytes.Buffer
}

func (h *hash256) Write(p []byte) (int, error) {
	return h.buf.Write(p)
}

func (h *hash256) Sum(b []byte) []byte {
	if v, has := h.values[h.buf.String()]; has {
		h.t.Logf("using digest value for %#q: %d", h.buf.String(), v)
		p := at(v)
		return append(b, p[:]...)
	}
	sum := sha256.Sum256(h.buf.Bytes())
	return append(b, sum[:]...)
}

func (h *hash256) Reset() {
	h.buf.Reset()
}

func (h *hash256) Size() int {
	return PositionSize
}

func (h *hash256) BlockSize() int {
	return 1
}
