package core

// PermuteAssignments implements spec §4.3's "Guarantor assignment":
// shuffle [0..V) using Fisher-Yates seeded by Q(i, H(η_k ‖ slot)), then
// chunk into V/C validators per core, with a cyclic shift of slot mod R
// applied to the resulting core assignment.
//
// Uses deterministic seeded-selection, generalized to a full Fisher-Yates shuffle
// driven by a Blake2b stream instead of math/rand (determinism across
// implementations requires a hash-derived, not PRNG-seeded, shuffle).
func PermuteAssignments(entropy Hash, slot Slot, v, c, rotationPeriod int) []CoreIndex {
	if v == 0 || c == 0 {
		return nil
	}
	perm := make([]int, v)
	for i := range perm {
		perm[i] = i
	}

	seed := Blake2b256(entropy[:], concatU32(nil, uint32(slot)))
	stream := newHashStream(seed)
	for i := v - 1; i > 0; i-- {
		j := int(stream.next() % uint64(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}

	perValidatorsPerCore := v / c
	if perValidatorsPerCore == 0 {
		perValidatorsPerCore = 1
	}

	assignment := make([]CoreIndex, v)
	for i, validatorIdx := range perm {
		core := i / perValidatorsPerCore
		if core >= c {
			core = c - 1
		}
		assignment[validatorIdx] = CoreIndex(core)
	}

	shift := int(slot) % rotationPeriodOrOne(rotationPeriod)
	if shift != 0 {
		rotated := make([]CoreIndex, v)
		for i, core := range assignment {
			rotated[i] = CoreIndex((int(core) + shift) % c)
		}
		return rotated
	}
	return assignment
}

func rotationPeriodOrOne(r int) int {
	if r <= 0 {
		return 1
	}
	return r
}

// hashStream derives an unbounded sequence of pseudo-random uint64 values
// from a 32-byte seed by repeatedly re-hashing a counter alongside it —
// a simple, fully deterministic construction standing in for the
// graypaper's Q(i, seed) selection function.
type hashStream struct {
	seed    Hash
	counter uint32
}

func newHashStream(seed Hash) *hashStream { return &hashStream{seed: seed} }

func (s *hashStream) next() uint64 {
	h := Blake2b256(s.seed[:], concatU32(nil, s.counter))
	s.counter++
	return beU64(h[:8])
}

// AssignedCore returns the core a validator is permuted to for slot,
// per the assignment table (spec §4.3 check 9).
func AssignedCore(assignment []CoreIndex, validator ValidatorIndex) (CoreIndex, bool) {
	if int(validator) >= len(assignment) {
		return 0, false
	}
	return assignment[validator], true
}
