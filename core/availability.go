package core

// PendingReport is one core's ρ slot: the work report awaiting
// availability assurance, plus the slot it was guaranteed at (spec §3.1
// "ρ | pending reports awaiting availability", §4.4).
type PendingReport struct {
	Report       WorkReport
	Reporters    []ValidatorIndex
	GuaranteeSlot Slot
	Occupied      bool
}

// AvailabilityState is ρ: one PendingReport slot per core.
type AvailabilityState []PendingReport

func NewAvailabilityState(cores int) AvailabilityState {
	return make(AvailabilityState, cores)
}

func (a AvailabilityState) Clone() AvailabilityState {
	out := make(AvailabilityState, len(a))
	copy(out, a)
	return out
}

// Assurance is one validator's availability-bitfield attestation (spec
// §4.4: "assurance bitfields with supermajority threshold").
type Assurance struct {
	Validator ValidatorIndex
	Bitfield  []byte // bit i set means "core i available", per AvailBitfieldBytes
	Signature []byte
}

// AssuranceContext carries what ValidateAssurancesExtrinsic needs from
// ambient state.
type AssuranceContext struct {
	Params          Params
	Availability    AvailabilityState
	VerifyAssurance func(validator ValidatorIndex, bitfield []byte, sig []byte) bool
}

func bitSet(bitfield []byte, core int) bool {
	byteIdx := core / 8
	bitIdx := uint(core % 8)
	if byteIdx >= len(bitfield) {
		return false
	}
	return bitfield[byteIdx]&(1<<bitIdx) != 0
}

// ValidateAssurancesExtrinsic checks each assurance's signature and
// bitfield length (spec §4.4), then tallies per-core availability votes
// and returns, for each core, whether the supermajority threshold was
// met.
func ValidateAssurancesExtrinsic(ctx AssuranceContext, assurances []Assurance, totalValidators int) ([]bool, error) {
	cores := len(ctx.Availability)
	votes := make([]int, cores)
	seen := make(map[ValidatorIndex]struct{}, len(assurances))

	for _, a := range assurances {
		if _, dup := seen[a.Validator]; dup {
			continue
		}
		seen[a.Validator] = struct{}{}

		if len(a.Bitfield) != ctx.Params.AvailBitfieldBytes {
			return nil, ErrAssuranceBadBitfieldLen
		}
		if ctx.VerifyAssurance != nil && !ctx.VerifyAssurance(a.Validator, a.Bitfield, a.Signature) {
			return nil, ErrAssuranceBadSignature
		}
		for c := 0; c < cores; c++ {
			if !ctx.Availability[c].Occupied {
				continue
			}
			if bitSet(a.Bitfield, c) {
				votes[c]++
			}
		}
	}

	threshold := SuperMajorityThreshold(totalValidators)
	available := make([]bool, cores)
	for c := 0; c < cores; c++ {
		available[c] = ctx.Availability[c].Occupied && votes[c] >= threshold
	}
	return available, nil
}

// ApplyAvailability clears each core whose report met the supermajority
// threshold, returning the now-available reports for handoff to
// accumulation (spec §4.1 step 8 -> step 9).
func ApplyAvailability(state AvailabilityState, available []bool) (AvailabilityState, []WorkReportAndDeps) {
	out := state.Clone()
	var freed []WorkReportAndDeps
	for c, ok := range available {
		if ok && out[c].Occupied {
			freed = append(freed, NewWorkReportAndDeps(out[c].Report))
			out[c] = PendingReport{}
		}
	}
	return out, freed
}

// ExpireTimedOutReports clears any occupied core whose guarantee slot is
// older than ReportTimeoutSlots relative to currentSlot, freeing the core
// for reassignment without ever accumulating the stale report (spec
// §4.4 "timeouts").
func ExpireTimedOutReports(state AvailabilityState, currentSlot Slot, timeoutSlots uint32) AvailabilityState {
	out := state.Clone()
	for c, slot := range out {
		if slot.Occupied && currentSlot > slot.GuaranteeSlot+Slot(timeoutSlots) {
			out[c] = PendingReport{}
		}
	}
	return out
}

// AssignPendingReport occupies a core's ρ slot with a newly guaranteed
// report (spec §4.1 step 7 -> step 8 handoff). Returns
// ErrReportBadCoreIndex if the core is out of range and
// ErrReportBadSlotWindow if the core is already occupied.
func AssignPendingReport(state AvailabilityState, core CoreIndex, report WorkReport, reporters []ValidatorIndex, slot Slot) (AvailabilityState, error) {
	if int(core) >= len(state) {
		return state, ErrReportBadCoreIndex
	}
	out := state.Clone()
	if out[core].Occupied {
		return out, ErrReportBadSlotWindow
	}
	out[core] = PendingReport{Report: report, Reporters: reporters, GuaranteeSlot: slot, Occupied: true}
	return out, nil
}
