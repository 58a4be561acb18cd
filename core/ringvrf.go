package core

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bandersnatch"
)

// Ring-VRF interface (§4.2, §9 Open Question).
//
// JAM's ticket mechanism relies on an anonymous ring-VRF over the
// bandersnatch curve: a validator proves it holds one secret key among
// the γ_k ring without revealing which one. The concrete proof system
// (a SNARK-backed ring signature, "ring-VRF" in the graypaper) is
// implemented on the Rust side of the reference node and is explicitly
// out of scope here — spec.md §1 and §9 both call for an interface only.
//
// This file defines that interface plus the pieces that ARE in scope:
// the bandersnatch public-key/point plumbing (via gnark-crypto) used to
// build the ring root γ_z, and a deterministic reference RingVerifier
// suitable for tests and the TINY preset. A production deployment
// substitutes RingProver/RingVerifier with an FFI-backed implementation
// without touching core/safrole.go.

// RingContext is the domain-separated signing context for a ticket:
// "jam_ticket_seal" ‖ η₃ ‖ attempt, per spec §4.2.
func RingContext(eta3 Hash, attempt uint8) []byte {
	ctx := append([]byte("jam_ticket_seal"), eta3[:]...)
	return append(ctx, attempt)
}

// RingProver produces a ring-VRF output (the ticket id) and an
// accompanying anonymity proof for one member of a ring, without
// revealing which member. Implemented by an external backend; see
// above.
type RingProver interface {
	// Prove returns the 32-byte VRF output (the ticket id) and an opaque
	// proof blob that RingVerifier.Verify can check against ringRoot.
	Prove(ringRoot Hash, context []byte) (id Hash, proof []byte, err error)
}

// RingVerifier checks that (id, proof) is a valid ring-VRF output for
// context under ringRoot, without learning which ring member produced it.
type RingVerifier interface {
	Verify(ringRoot Hash, context []byte, id Hash, proof []byte) (bool, error)
}

// RingRoot commits a set of bandersnatch public keys (γ_k) into the
// 144-byte-equivalent root γ_z that parameterises ring membership checks.
// The reference implementation below sums the members' decoded
// bandersnatch points via real twisted-Edwards point addition and commits
// to the aggregate point's encoding, rather than the SNARK-friendly
// KZG/IPA commitment the production ring-VRF backend would use — callers
// needing the real commitment scheme supply their own RingCommitter.
type RingCommitter interface {
	Commit(members []BandersnatchPubKey) (Hash, error)
}

// referenceRingCommitter aggregates the ring's member points by curve
// addition, then Blake2b-hashes the aggregate's encoding. Deterministic,
// and the result does not depend on member order (point addition is
// commutative); decoding stops at the first invalid member. Suitable for
// tests and TINY; it is NOT the production ring commitment.
type referenceRingCommitter struct{}

// DefaultRingCommitter is the reference implementation used when no
// external backend is configured.
var DefaultRingCommitter RingCommitter = referenceRingCommitter{}

func (referenceRingCommitter) Commit(members []BandersnatchPubKey) (Hash, error) {
	var sum bandersnatch.PointAffine
	sum.X.SetZero()
	sum.Y.SetOne() // twisted-Edwards identity element

	for i, m := range members {
		var p bandersnatch.PointAffine
		if _, err := p.SetBytes(m[:]); err != nil {
			return Hash{}, fmt.Errorf("ringvrf: decode member %d: %w", i, err)
		}
		sum.Add(&sum, &p)
	}

	enc := sum.Bytes()
	return Blake2b256([]byte("jam_ring_root"), enc[:]), nil
}

// BandersnatchPublicKey derives the public point for a scalar secret key
// by scalar-multiplying the bandersnatch twisted-Edwards base point,
// using gnark-crypto's curve arithmetic. This is the one piece of real
// elliptic-curve math this repo performs for the ring-VRF surface; the
// anonymous ring proof itself stays behind the RingProver/RingVerifier
// interface above.
func BandersnatchPublicKey(secret *big.Int) (BandersnatchPubKey, error) {
	if secret == nil {
		return BandersnatchPubKey{}, fmt.Errorf("ringvrf: nil secret scalar")
	}
	curve := bandersnatch.GetEdwardsCurve()
	var pub bandersnatch.PointAffine
	pub.ScalarMultiplication(&curve.Base, secret)
	enc := pub.Bytes()

	var out BandersnatchPubKey
	copy(out[:], enc[:])
	return out, nil
}

// referenceRingVerifier treats `proof` as a direct Ed25519-free HMAC-style
// commitment: proof must equal Blake2b(ringRoot ‖ context ‖ id). This lets
// tests exercise Safrole's ticket-acceptance control flow deterministically
// without a real ring-VRF backend, matching §9's guidance that the
// primitive is interface-only.
type referenceRingVerifier struct{}

// DefaultRingVerifier is used when no external ring-VRF backend is wired.
var DefaultRingVerifier RingVerifier = referenceRingVerifier{}

func (referenceRingVerifier) Verify(ringRoot Hash, context []byte, id Hash, proof []byte) (bool, error) {
	want := Blake2b256(ringRoot[:], context, id[:])
	if len(proof) != len(want) {
		return false, nil
	}
	for i := range want {
		if proof[i] != want[i] {
			return false, nil
		}
	}
	return true, nil
}

// referenceRingProver is the prover half of the reference backend, used by
// test fixtures to construct well-formed tickets.
type referenceRingProver struct{}

// DefaultRingProver is used when no external ring-VRF backend is wired.
var DefaultRingProver RingProver = referenceRingProver{}

func (referenceRingProver) Prove(ringRoot Hash, context []byte) (Hash, []byte, error) {
	id := Blake2b256(ringRoot[:], context, []byte("id"))
	proof := Blake2b256(ringRoot[:], context, id[:])
	return id, proof[:], nil
}
