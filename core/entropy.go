package core

// Entropy holds the four accumulators η₀..η₃ (spec §3.1). η₀ accumulates
// per-block entropy; η₁..η₃ are prior values of η₀ captured at the last
// three epoch boundaries.
type Entropy struct {
	Eta0, Eta1, Eta2, Eta3 Hash
}

// Clone returns a copy (Entropy has no reference fields, so this is a
// plain value copy; kept as a method for symmetry with the other σ
// components' Clone methods used by StateTransition.ensure(_prime)).
func (e Entropy) Clone() Entropy { return e }

// AccumulateBlock folds entropySource (from the block header) into η₀,
// per spec §4.1 step 2 / the no-op-block testable property: "η₀ updated
// to H(η₀‖entropy_source)".
func (e Entropy) AccumulateBlock(entropySource []byte) Entropy {
	e.Eta0 = Blake2b256(e.Eta0[:], entropySource)
	return e
}

// RotateEpoch shifts the accumulators at an epoch boundary (spec §4.2):
// η₁ takes the previous η₀, η₂ the previous η₁, η₃ the previous η₂; η₀ is
// left for the caller to re-accumulate on the new epoch's first block.
func (e Entropy) RotateEpoch() Entropy {
	return Entropy{
		Eta0: e.Eta0,
		Eta1: e.Eta0,
		Eta2: e.Eta1,
		Eta3: e.Eta2,
	}
}
