package core

// PackageSpec identifies the off-chain-refined work package a report
// covers (spec §3.3).
type PackageSpec struct {
	Hash         Hash
	ExportsRoot  Hash
	ErasureRoot  Hash
	Length       uint32
}

// ReportContext carries the report's anchoring and prerequisite data
// (spec §3.3).
type ReportContext struct {
	Anchor           Hash
	LookupAnchor     Hash
	LookupAnchorSlot Slot
	Prerequisites    []Hash
	StateRoot        Hash
}

// WorkResult is one service invocation result bundled in a report (spec
// §3.3: "per-result list (service_id, code_hash, accumulate_gas, result
// payload or error)").
type WorkResult struct {
	ServiceId     ServiceId
	CodeHash      Hash
	AccumulateGas uint64
	Payload       []byte // present iff Error == ""
	Error         string // non-empty means the refinement itself errored
}

// SegmentRootLookup is one entry of a report's segment-root-lookup list,
// a further dependency on an already-accumulated work package by hash.
type SegmentRootLookup struct {
	PackageHash Hash
	SegmentRoot Hash
}

// WorkReport is R (spec §3.3).
type WorkReport struct {
	PackageSpec       PackageSpec
	Context           ReportContext
	CoreIndex         CoreIndex
	AuthorizerHash    Hash
	Results           []WorkResult
	SegmentRootLookup []SegmentRootLookup
}

// TotalAccumulateGas sums AccumulateGas across all results (spec §4.3
// check 2).
func (r WorkReport) TotalAccumulateGas() uint64 {
	var sum uint64
	for _, res := range r.Results {
		sum += res.AccumulateGas
	}
	return sum
}

// WorkReportAndDeps augments R with a mutable set of outstanding
// work-package-hash dependencies (spec §3.3), derived initially from
// context.prerequisites ∪ segment_root_lookup.
type WorkReportAndDeps struct {
	Report       WorkReport
	Dependencies map[Hash]struct{}
}

// NewWorkReportAndDeps derives the initial dependency set.
func NewWorkReportAndDeps(r WorkReport) WorkReportAndDeps {
	deps := make(map[Hash]struct{}, len(r.Context.Prerequisites)+len(r.SegmentRootLookup))
	for _, h := range r.Context.Prerequisites {
		deps[h] = struct{}{}
	}
	for _, s := range r.SegmentRootLookup {
		deps[s.PackageHash] = struct{}{}
	}
	return WorkReportAndDeps{Report: r, Dependencies: deps}
}

// IsImmediatelyAccumulatable reports whether r has no prerequisites and
// no segment-root-lookup entries (spec §4.5 "Partition").
func (r WorkReport) IsImmediatelyAccumulatable() bool {
	return len(r.Context.Prerequisites) == 0 && len(r.SegmentRootLookup) == 0
}
