package core

// AccumulationQueue orders newly-available work reports for accumulation
// (spec §4.5): reports with no outstanding dependencies accumulate
// immediately; the rest wait in a per-slot queue until their
// dependencies clear, emitted in the order their last dependency
// resolved (a topological, not priority-numeric, ordering).
//
// Follows a pending-queue-plus-readiness-filter shape applied each
// round, adapted to dependency-graph topological emission.
type AccumulationQueue struct {
	// Pending holds not-yet-ready reports together with their remaining
	// unresolved dependency hashes.
	Pending []WorkReportAndDeps
}

func (q AccumulationQueue) Clone() AccumulationQueue {
	out := make([]WorkReportAndDeps, len(q.Pending))
	for i, p := range q.Pending {
		deps := make(map[Hash]struct{}, len(p.Dependencies))
		for h := range p.Dependencies {
			deps[h] = struct{}{}
		}
		out[i] = WorkReportAndDeps{Report: p.Report, Dependencies: deps}
	}
	return AccumulationQueue{Pending: out}
}

// Partition splits freshly-available reports into those immediately
// accumulatable and those still blocked on a prerequisite or
// segment-root lookup (spec §4.5 "Partition").
func Partition(freed []WorkReportAndDeps) (ready []WorkReportAndDeps, blocked []WorkReportAndDeps) {
	for _, f := range freed {
		if len(f.Dependencies) == 0 {
			ready = append(ready, f)
		} else {
			blocked = append(blocked, f)
		}
	}
	return
}

// Filter removes resolvedHash from every pending report's dependency
// set, returning the subset that became fully ready as a result (spec
// §4.5 "Filter").
func Filter(pending []WorkReportAndDeps, resolvedHash Hash) (stillPending []WorkReportAndDeps, newlyReady []WorkReportAndDeps) {
	for _, p := range pending {
		if _, had := p.Dependencies[resolvedHash]; had {
			delete(p.Dependencies, resolvedHash)
		}
		if len(p.Dependencies) == 0 {
			newlyReady = append(newlyReady, p)
		} else {
			stillPending = append(stillPending, p)
		}
	}
	return
}

// Enqueue merges newly-freed reports into the queue, splitting
// immediately-ready ones out for the caller to accumulate this round.
func (q AccumulationQueue) Enqueue(freed []WorkReportAndDeps) (AccumulationQueue, []WorkReportAndDeps) {
	ready, blocked := Partition(freed)
	next := append(append([]WorkReportAndDeps(nil), q.Pending...), blocked...)
	return AccumulationQueue{Pending: next}, ready
}

// Drain repeatedly resolves dependencies against the set of hashes
// accumulated this round (in emission order), pulling newly-ready
// reports out of Pending until no more become ready. This implements
// the priority-queue emission order of spec §4.5: a report emits as
// soon as its last dependency clears, not in any fixed numeric
// priority.
func (q AccumulationQueue) Drain(accumulatedThisRound []Hash) (AccumulationQueue, []WorkReportAndDeps) {
	pending := q.Pending
	var emitted []WorkReportAndDeps

	for _, h := range accumulatedThisRound {
		var stillPending, newlyReady []WorkReportAndDeps
		stillPending, newlyReady = Filter(pending, h)
		pending = stillPending
		emitted = append(emitted, newlyReady...)
	}

	// Newly emitted reports may themselves unblock others already queued
	// this round; keep resolving against their package hashes too.
	frontier := emitted
	for len(frontier) > 0 {
		var nextFrontier []WorkReportAndDeps
		for _, e := range frontier {
			var stillPending, newlyReady []WorkReportAndDeps
			stillPending, newlyReady = Filter(pending, e.Report.PackageSpec.Hash)
			pending = stillPending
			nextFrontier = append(nextFrontier, newlyReady...)
		}
		emitted = append(emitted, nextFrontier...)
		frontier = nextFrontier
	}

	return AccumulationQueue{Pending: pending}, emitted
}
