package core

// StateTransition wraps an immutable base σ and a mutable prime σ′ (spec
// §3.4 "Data flow"). The prime is a clone of the whole base, made on the
// first Prime() call; components are not cloned individually.
//
// Follows a copy-on-write ledger-overlay pattern, generalized from a
// single flat balance map to the full multi-component σ record.
type StateTransition struct {
	base  *State
	prime *State
}

// NewStateTransition begins a transition over an immutable base.
func NewStateTransition(base *State) *StateTransition {
	return &StateTransition{base: base}
}

// ensure returns the prime overlay, cloning the base into it on first
// access.
func (t *StateTransition) ensure() *State {
	if t.prime == nil {
		t.prime = t.base.Clone()
	}
	return t.prime
}

// Prime is the public entry point subsystems use to obtain a mutable
// view; it is just the exported name for ensure().
func (t *StateTransition) Prime() *State { return t.ensure() }

// Base returns the read-only prior state.
func (t *StateTransition) Base() *State { return t.base }

// createMergedView returns a σ-shaped view with each field resolved to
// prime (if set) else base — here, because State has no per-field
// optionality once primed, the merged view is simply the prime overlay
// if any write occurred, else the base itself (spec §3.4
// "createMergedView(): returns a σ-shaped view with each field resolved
// to prime (if set) else base; used for merklization and fork detection
// without committing").
func (t *StateTransition) createMergedView() *State {
	if t.prime != nil {
		return t.prime
	}
	return t.base
}

// MergedView exposes createMergedView to callers (e.g. the orchestrator
// computing σ′'s state root before commit).
func (t *StateTransition) MergedView() *State { return t.createMergedView() }

// commit moves prime fields into the owning σ, i.e. the transition's
// result becomes the new canonical state (spec §3.4 "commit(): moves
// prime fields into the owning σ").
func (t *StateTransition) commit() *State {
	if t.prime == nil {
		return t.base
	}
	return t.prime
}

// Commit exposes commit() to the orchestrator.
func (t *StateTransition) Commit() *State { return t.commit() }
