package core

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

var safroleLog = logrus.WithField("component", "safrole")

// SlotAssignment is one entry of γ_s: either a ticket (id + attempt, used
// as the slot-sealing VRF input) or, when the ticket accumulator
// underfilled an epoch, a direct validator-key fallback assignment.
type SlotAssignment struct {
	Ticket       *Ticket
	FallbackKey  *ValidatorKey
	FallbackIdx  int
	IsFallback   bool
}

// SafroleState is γ (spec §3.1): pending next-epoch validators, the
// bandersnatch ring root, the epoch slot map, and the in-progress ticket
// accumulator.
type SafroleState struct {
	PendingValidators ValidatorSet     // γ_k
	RingRoot          Hash             // γ_z
	SlotMap           []SlotAssignment // γ_s, length E
	TicketAccumulator []Ticket         // γ_a, len ≤ E, sorted by id
}

func (s SafroleState) Clone() SafroleState {
	out := SafroleState{
		PendingValidators: s.PendingValidators.Clone(),
		RingRoot:          s.RingRoot,
		SlotMap:           append([]SlotAssignment(nil), s.SlotMap...),
		TicketAccumulator: append([]Ticket(nil), s.TicketAccumulator...),
	}
	return out
}

// EpochOf returns the epoch index for slot, given epoch length E.
func EpochOf(slot Slot, epochLength int) uint32 {
	return uint32(slot) / uint32(epochLength)
}

// SlotWithinEpoch returns slot's position within its epoch, in [0, E).
func SlotWithinEpoch(slot Slot, epochLength int) int {
	return int(uint32(slot)) % epochLength
}

// SafroleInput bundles one block's worth of Safrole-relevant data: the
// prior and new slots and the tickets extrinsic (with accompanying
// ring-VRF proofs). The header's entropy source is not part of it; the
// orchestrator folds it into η₀ after Transition returns.
type SafroleInput struct {
	PriorSlot         Slot
	NewSlot           Slot
	TicketsExtrinsic  []Ticket
	TicketProofs      [][]byte
	SubmissionWindowSlots int // how many slots into the epoch tickets may be submitted
	NewPendingSet     ValidatorSet // ι, carried through verbatim absent registration changes
}

// SafroleResult reports what the transition did, for the orchestrator to
// fold into entropy/validator rotation and for tests to assert against
// spec §8's end-to-end scenarios.
type SafroleResult struct {
	EpochChanged bool
	NewState     SafroleState
}

// Transition applies spec §4.2's per-block Safrole state machine:
//
//	(a) validate the tickets extrinsic;
//	(b) if the new slot crosses an epoch boundary, rotate η and
//	    recompute γ_z from γ_k (the caller rotates κ/λ when
//	    EpochChanged is set);
//	(c) if still within the ticket-submission window, merge new tickets;
//	(d) if the window just closed with |γ_a|=E, compute γ_s via
//	    outside-in ordering and clear γ_a; else γ_s is the fallback
//	    sequence.
func Transition(verifier RingVerifier, committer RingCommitter, params Params, state SafroleState, eta Entropy, in SafroleInput) (SafroleResult, Entropy, error) {
	if in.NewSlot <= in.PriorSlot {
		return SafroleResult{}, eta, fmt.Errorf("%w: new slot %d <= prior %d", ErrSafroleBadSlot, in.NewSlot, in.PriorSlot)
	}

	if len(in.TicketsExtrinsic) > params.EpochLength {
		return SafroleResult{}, eta, fmt.Errorf("%w: %d tickets > epoch length %d", ErrSafroleTooManyTickets, len(in.TicketsExtrinsic), params.EpochLength)
	}

	// (a) validate
	if err := ValidateTicketsExtrinsic(verifier, state.RingRoot, eta.Eta3, params.MaxTicketAttempts, in.TicketsExtrinsic, in.TicketProofs); err != nil {
		return SafroleResult{}, eta, err
	}

	epochChanged := EpochOf(in.PriorSlot, params.EpochLength) != EpochOf(in.NewSlot, params.EpochLength)
	next := state.Clone()
	nextEta := eta

	withinWindow := SlotWithinEpoch(in.NewSlot, params.EpochLength) < in.SubmissionWindowSlots
	windowJustClosed := epochChanged || (!withinWindow && SlotWithinEpoch(in.PriorSlot, params.EpochLength) < in.SubmissionWindowSlots)

	if len(in.TicketsExtrinsic) > 0 {
		if !withinWindow {
			return SafroleResult{}, eta, fmt.Errorf("%w: submission window closed", ErrSafroleUnexpectedTicket)
		}
		merged, err := MergeTickets(next.TicketAccumulator, in.TicketsExtrinsic)
		if err != nil {
			return SafroleResult{}, eta, err
		}
		if len(merged) > params.EpochLength {
			return SafroleResult{}, eta, fmt.Errorf("%w: accumulator would hold %d > E %d", ErrSafroleTooManyTickets, len(merged), params.EpochLength)
		}
		next.TicketAccumulator = merged
	}

	if epochChanged {
		safroleLog.WithFields(logrus.Fields{"prior_slot": in.PriorSlot, "new_slot": in.NewSlot}).Debug("epoch boundary crossed")
		nextEta = eta.RotateEpoch()
		root, err := committer.Commit(bandersnatchMembers(next.PendingValidators))
		if err != nil {
			return SafroleResult{}, eta, fmt.Errorf("safrole: ring root: %w", err)
		}
		next.RingRoot = root
	}

	if windowJustClosed {
		if len(next.TicketAccumulator) == params.EpochLength {
			sorted := sortTickets(next.TicketAccumulator)
			ordered := OutsideInOrder(sorted)
			next.SlotMap = make([]SlotAssignment, len(ordered))
			for i, t := range ordered {
				tt := t
				next.SlotMap[i] = SlotAssignment{Ticket: &tt}
			}
		} else {
			next.SlotMap = fallbackSequence(nextEta, next.PendingValidators, params.EpochLength)
		}
		next.TicketAccumulator = nil
	}

	return SafroleResult{EpochChanged: epochChanged, NewState: next}, nextEta, nil
}

func bandersnatchMembers(vs ValidatorSet) []BandersnatchPubKey {
	out := make([]BandersnatchPubKey, len(vs))
	for i, v := range vs {
		out[i] = v.Bandersnatch
	}
	return out
}

// fallbackSequence derives the deterministic slot→validator fallback
// mapping (spec glossary: "Fallback key sequence") used when the ticket
// accumulator underfills an epoch. SPEC_FULL.md §12.2 resolves the exact
// derivation: fallback[i] = γ_k[ blake2b(η₂ ‖ i) mod V ].
func fallbackSequence(eta Entropy, gammaK ValidatorSet, epochLength int) []SlotAssignment {
	v := len(gammaK)
	out := make([]SlotAssignment, epochLength)
	if v == 0 {
		return out
	}
	for i := 0; i < epochLength; i++ {
		h := Blake2b256(eta.Eta2[:], concatU32(nil, uint32(i)))
		idx := int(beU64(h[:8]) % uint64(v))
		key := gammaK[idx]
		out[i] = SlotAssignment{FallbackKey: &key, FallbackIdx: idx, IsFallback: true}
	}
	return out
}

func beU64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}
