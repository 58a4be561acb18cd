package core

import "sort"

// GuaranteeSignature is one guarantor's attestation to a work report
// (spec §3.3 / §4.3: "guarantor signatures ... match the Fisher-Yates
// core assignment").
type GuaranteeSignature struct {
	Validator ValidatorIndex
	Signature []byte
}

// Guarantee bundles a work report with its slot of submission and the
// guarantor signatures backing it (spec §4.1 step 7 "Guarantees").
type Guarantee struct {
	Report     WorkReport
	Slot       Slot
	Signatures []GuaranteeSignature
}

// GuaranteesContext carries the ambient state a guarantees-extrinsic
// validation pass needs to read (spec §4.3).
type GuaranteesContext struct {
	Params               Params
	RecentHistory        RecentHistory
	Accounts             ServiceAccounts
	Assignment           []CoreIndex // validator -> core, from PermuteAssignments
	Offenders            map[ValidatorIndex]struct{}
	AccumulationHistory  map[Hash]struct{} // hashes already accumulated (ξ), for dependency resolution
	CurrentSlot          Slot
	CoreEngagedUntil     []Slot // per-core busy-until slot (ρ occupancy), checked for rotation window
	VerifyGuarantorSig   func(validator ValidatorIndex, report WorkReport, sig []byte) bool
}

// ValidateGuaranteesExtrinsic runs spec §4.3's nine checks against each
// guarantee in the extrinsic, in ascending core-index order, and returns
// the accepted reports-with-deps on success.
//
// Follows a multi-check validation pipeline shape (accumulate all
// structural checks before touching state), applied to the
// report/guarantee domain.
func ValidateGuaranteesExtrinsic(ctx GuaranteesContext, guarantees []Guarantee) ([]WorkReportAndDeps, error) {
	seenPackageHash := make(map[Hash]struct{}, len(guarantees))
	var lastCore = -1
	out := make([]WorkReportAndDeps, 0, len(guarantees))

	for _, g := range guarantees {
		r := g.Report

		// 1. core_index < C, strictly ascending across the extrinsic.
		if int(r.CoreIndex) >= ctx.Params.CoreCount {
			return nil, ErrReportBadCoreIndex
		}
		if int(r.CoreIndex) <= lastCore {
			return nil, ErrReportOutOfOrderGuarantee
		}
		lastCore = int(r.CoreIndex)

		// 2. results non-empty, total accumulate_gas within allocation.
		if len(r.Results) == 0 {
			return nil, ErrReportMissingWorkResults
		}
		if r.TotalAccumulateGas() > ctx.Params.GasAllocAccumulation {
			return nil, ErrReportGasTooHigh
		}

		// 3. per-core output size limit.
		var totalOut int
		for _, res := range r.Results {
			totalOut += len(res.Payload)
		}
		if totalOut > maxReportOutputBytes {
			return nil, ErrReportOutputTooLarge
		}

		// 4. context anchor exists in recent history (β).
		if !ctx.RecentHistory.ContainsAnchor(r.Context.Anchor) {
			return nil, ErrReportAnchorNotRecent
		}
		if r.Context.LookupAnchor != (Hash{}) && !ctx.RecentHistory.ContainsAnchor(r.Context.LookupAnchor) {
			if ctx.CurrentSlot > r.Context.LookupAnchorSlot+Slot(ctx.Params.LookupAnchorWindow) {
				return nil, ErrReportLookupAnchorNotRecent
			}
		}

		// 5. slot within the core's rotation window (ρ not stale-engaged).
		if int(r.CoreIndex) < len(ctx.CoreEngagedUntil) {
			if g.Slot < ctx.CoreEngagedUntil[r.CoreIndex] {
				return nil, ErrReportBadSlotWindow
			}
		}

		// 6. referenced services exist with matching code_hash.
		for _, res := range r.Results {
			acct, ok := ctx.Accounts[res.ServiceId]
			if !ok {
				return nil, ErrReportUnknownService
			}
			if acct.CodeHash != res.CodeHash {
				return nil, ErrReportCodeHashMismatch
			}
		}

		// 7. prerequisites / segment-root-lookup resolvable in-batch or in ξ.
		wd := NewWorkReportAndDeps(r)
		for dep := range wd.Dependencies {
			if _, already := ctx.AccumulationHistory[dep]; already {
				continue
			}
			if _, inBatch := seenPackageHash[dep]; inBatch {
				continue
			}
			// may resolve to a report later in this same extrinsic
			resolvedLater := false
			for _, other := range guarantees {
				if other.Report.PackageSpec.Hash == dep {
					resolvedLater = true
					break
				}
			}
			if !resolvedLater {
				return nil, ErrReportUnresolvedPrerequisite
			}
		}

		// 8. no duplicate package hash within this extrinsic; package
		// hashes reported in earlier blocks are not checked (β records
		// header hashes only).
		if _, dup := seenPackageHash[r.PackageSpec.Hash]; dup {
			return nil, ErrReportDuplicatePackage
		}
		seenPackageHash[r.PackageSpec.Hash] = struct{}{}

		// 9. guarantor signatures match Fisher-Yates assignment, signer not
		// an offender, signatures verify.
		if err := validateGuarantors(ctx, r.CoreIndex, g); err != nil {
			return nil, err
		}

		out = append(out, wd)
	}

	return out, nil
}

const maxReportOutputBytes = 1 << 20

func validateGuarantors(ctx GuaranteesContext, core CoreIndex, g Guarantee) error {
	if len(g.Signatures) == 0 {
		return ErrReportInsufficientGuarantees
	}
	seen := make(map[ValidatorIndex]struct{}, len(g.Signatures))
	for _, sig := range g.Signatures {
		if _, dup := seen[sig.Validator]; dup {
			continue
		}
		seen[sig.Validator] = struct{}{}

		assigned, ok := AssignedCore(ctx.Assignment, sig.Validator)
		if !ok || assigned != core {
			return ErrReportBadGuarantor
		}
		if _, offender := ctx.Offenders[sig.Validator]; offender {
			return ErrReportOffenderGuarantor
		}
		if ctx.VerifyGuarantorSig != nil && !ctx.VerifyGuarantorSig(sig.Validator, g.Report, sig.Signature) {
			return ErrReportBadSignature
		}
	}
	if len(seen) < minGuarantorsPerReport {
		return ErrReportInsufficientGuarantees
	}
	return nil
}

const minGuarantorsPerReport = 2

// SortGuaranteesByCore returns a copy of guarantees sorted ascending by
// core index, as required before ValidateGuaranteesExtrinsic's ordering
// check (callers that assemble extrinsics out of order should sort first;
// validation itself only verifies, it does not sort).
func SortGuaranteesByCore(guarantees []Guarantee) []Guarantee {
	out := append([]Guarantee(nil), guarantees...)
	sort.Slice(out, func(i, j int) bool { return out[i].Report.CoreIndex < out[j].Report.CoreIndex })
	return out
}
