// Package core implements the JAM node-side state transition function:
// block orchestration, Safrole epoch/tickets, guarantees/availability/
// accumulation, the PVM, and state merklization. See SPEC_FULL.md.
package core

import "strings"

// Params is the compile-time configuration record threaded through every
// subsystem. All bounds referenced by spec.md (V, E, C, O, Q, H, ...) are
// runtime checks against one of these values — there is no global state.
//
// Expressed as a record instead of a package-level typed-constant block,
// since the STF must support both the TINY and FULL presets at runtime.
type Params struct {
	// ValidatorsCount (V) is the number of validators in any epoch.
	ValidatorsCount int
	// EpochLength (E) is the number of timeslots per epoch.
	EpochLength int
	// CoreCount (C) is the number of cores work is sharded across.
	CoreCount int
	// MaxAuthPoolItems (O) bounds each core's authorization pool α.
	MaxAuthPoolItems int
	// MaxAuthQueueItems (Q) is the fixed length of each core's authorization queue φ.
	MaxAuthQueueItems int
	// RecentHistorySize (H) bounds the recent-history MMR β.
	RecentHistorySize int
	// AvailBitfieldBytes is the byte length of an assurance bitfield.
	AvailBitfieldBytes int
	// GasAllocAccumulation is the per-report accumulate-gas ceiling (§4.3 check 2).
	GasAllocAccumulation uint64
	// ValidatorsSuperMajority is the minimum assurance-bitfield vote count
	// required to mark a report available (§4.4): ceil(2V/3)+1.
	ValidatorsSuperMajority int
	// MaxTicketAttempts (N) bounds a ticket's attempt index (§4.2).
	MaxTicketAttempts int
	// ReportTimeoutSlots (T) is added to τ when a guarantee is placed on ρ (§4.3).
	ReportTimeoutSlots uint32
	// RotationPeriod (R) is the guarantor-assignment cyclic-shift period (§4.3).
	RotationPeriod uint32
	// LookupAnchorWindow bounds how stale a lookup_anchor may be (§4.3 check 4).
	LookupAnchorWindow uint32
}

// SuperMajorityThreshold returns ceil(2*V/3)+1 for the given validator count,
// the canonical JAM supermajority threshold (§4.4).
func SuperMajorityThreshold(v int) int {
	return (2*v+2)/3 + 1
}

// TinyParams is the TINY preset used by test vectors and development:
// V=6, C=2, E=12.
func TinyParams() Params {
	p := Params{
		ValidatorsCount:      6,
		EpochLength:          12,
		CoreCount:            2,
		MaxAuthPoolItems:     8,
		MaxAuthQueueItems:    80,
		RecentHistorySize:    8,
		AvailBitfieldBytes:   1,
		GasAllocAccumulation: 10_000_000,
		MaxTicketAttempts:    3,
		ReportTimeoutSlots:   5,
		RotationPeriod:       4,
		LookupAnchorWindow:   14,
	}
	p.ValidatorsSuperMajority = SuperMajorityThreshold(p.ValidatorsCount)
	return p
}

// FullParams is the FULL preset: V=1023, C=341, E=600.
func FullParams() Params {
	p := Params{
		ValidatorsCount:      1023,
		EpochLength:          600,
		CoreCount:            341,
		MaxAuthPoolItems:     8,
		MaxAuthQueueItems:    80,
		RecentHistorySize:    8,
		AvailBitfieldBytes:   43,
		GasAllocAccumulation: 3_500_000_000,
		MaxTicketAttempts:    3,
		ReportTimeoutSlots:   5,
		RotationPeriod:       10,
		LookupAnchorWindow:   14,
	}
	p.ValidatorsSuperMajority = SuperMajorityThreshold(p.ValidatorsCount)
	return p
}

// PresetByName resolves "tiny"/"full" (case-insensitive) to a Params value.
func PresetByName(name string) (Params, bool) {
	switch strings.ToLower(name) {
	case "tiny":
		return TinyParams(), true
	case "full":
		return FullParams(), true
	default:
		return Params{}, false
	}
}
