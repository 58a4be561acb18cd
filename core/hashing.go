package core

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Blake2b256 hashes data with a 32-byte digest, the canonical hash used
// throughout JAM's state merklization (§4.7) and entropy accumulation
// (§4.2). JAM's graypaper mandates Blake2b-256 rather than a simpler
// sha256.Sum256 pairwise tree, so the function signature is kept but the
// digest swapped.
func Blake2b256(parts ...[]byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors for an oversized key, which we never pass.
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// concatU32 appends the little-endian encoding of v to prefix — a small
// helper used by entropy rotation and ticket-context construction where a
// scalar must be mixed into a hash input alongside raw byte slices.
func concatU32(prefix []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(append([]byte(nil), prefix...), b[:]...)
}
